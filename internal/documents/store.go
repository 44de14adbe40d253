// Package documents implements per-user document CRUD and the append-only
// version history on top of the storage backend. Every lookup folds the
// ownership check into the WHERE clause: an unknown id and another user's id
// are the same ErrNotFound, so existence never leaks across owners.
package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/storage"
)

// Store provides document CRUD and version-history operations.
type Store struct {
	db storage.Backend
}

func New(db storage.Backend) *Store {
	return &Store{db: db}
}

// SaveDocument upserts by id: insert when absent, otherwise overwrite title,
// content and updated_at. The owner is set only on insert; the update arm is
// guarded by owner_id, so a save against someone else's id changes nothing
// and reports common.ErrNotFound.
func (s *Store) SaveDocument(ctx context.Context, id, title, content, ownerID string) (*models.Document, error) {
	if id == "" || ownerID == "" {
		return nil, fmt.Errorf("%w: document id and owner are required", common.ErrValidation)
	}
	return s.save(ctx, s.db, id, title, content, ownerID)
}

func (s *Store) save(ctx context.Context, db storage.Backend, id, title, content, ownerID string) (*models.Document, error) {
	now := models.NowMillis()

	res, err := db.Exec(ctx,
		`INSERT INTO documents (id, title, content, owner_id, created_at, updated_at, last_modified, last_saved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   content = excluded.content,
		   updated_at = excluded.updated_at,
		   last_modified = excluded.last_modified
		 WHERE documents.owner_id = excluded.owner_id`,
		id, title, content, ownerID, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting document: %w", err)
	}
	if res.RowsAffected == 0 {
		// Id exists under another owner; indistinguishable from absence.
		return nil, common.ErrNotFound
	}

	return s.get(ctx, db, id, ownerID)
}

// UserDocuments lists the owner's documents, newest update first, without
// content.
func (s *Store) UserDocuments(ctx context.Context, ownerID string) ([]models.DocumentSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, created_at, updated_at
		 FROM documents WHERE owner_id = ?
		 ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.DocumentSummary, 0)
	for rows.Next() {
		var d models.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// UserDocument fetches one document. Unknown id and owner mismatch are the
// same common.ErrNotFound.
func (s *Store) UserDocument(ctx context.Context, id, ownerID string) (*models.Document, error) {
	return s.get(ctx, s.db, id, ownerID)
}

func (s *Store) get(ctx context.Context, db storage.Backend, id, ownerID string) (*models.Document, error) {
	d := &models.Document{}
	err := db.QueryRow(ctx,
		`SELECT id, title, content, owner_id, created_at, updated_at, last_modified, last_saved
		 FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID).
		Scan(&d.ID, &d.Title, &d.Content, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt, &d.LastModified, &d.LastSaved)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetching document: %w", err)
	}
	return d, nil
}

// MarkSaved records a confirmed remote persist: last_saved = last_modified.
func (s *Store) MarkSaved(ctx context.Context, id, ownerID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE documents SET last_saved = last_modified WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("marking document saved: %w", err)
	}
	return nil
}

// DeleteUserDocument removes the row only when both id and owner match.
// Zero rows affected is not an error; the count is the answer.
func (s *Store) DeleteUserDocument(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting document: %w", err)
	}
	return res.RowsAffected, nil
}
