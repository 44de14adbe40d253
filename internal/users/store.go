// Package users implements registration and credential validation on top of
// the storage backend.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor. 10 keeps a single hash in the tens of
// milliseconds on current hardware.
const hashCost = 10

// dummyHash is a valid bcrypt hash compared against when the email is
// unknown, so the miss path costs the same as a real mismatch.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Store provides user registration and credential checks.
type Store struct {
	db storage.Backend
}

func New(db storage.Backend) *Store {
	return &Store{db: db}
}

// CreateUser registers a new account. Email and username must be unique;
// a collision on either yields common.ErrDuplicate. The password is stored
// only as a bcrypt hash and the returned User never carries it.
func (s *Store) CreateUser(ctx context.Context, email, username, password string) (*models.User, error) {
	if email == "" || username == "" || password == "" {
		return nil, fmt.Errorf("%w: email, username and password are required", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := models.NowMillis()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, string(hash), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if errors.Is(err, storage.ErrConstraint) {
			return nil, fmt.Errorf("%w: email or username taken", common.ErrDuplicate)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

// ValidateUser looks the account up by email and checks the password.
// An unknown email and a wrong password both return (nil, nil); the caller
// cannot tell which happened.
func (s *Store) ValidateUser(ctx context.Context, email, password string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, email, username, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			// Burn the same work as a real comparison.
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, nil
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}

	u.PasswordHash = ""
	return u, nil
}
