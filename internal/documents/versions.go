package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/storage"
)

// SaveDocumentWithVersion upserts the document and appends a history row in
// one transaction, so a crash cannot leave the document ahead of its history.
// Version numbers are monotonic per document, starting at 1.
func (s *Store) SaveDocumentWithVersion(ctx context.Context, id, title, content, ownerID, authorID, message string) (*models.DocumentVersion, error) {
	var v *models.DocumentVersion

	err := s.db.WithTx(ctx, func(ctx context.Context, tx storage.Backend) error {
		if _, err := s.save(ctx, tx, id, title, content, ownerID); err != nil {
			return err
		}
		var err error
		v, err = appendVersion(ctx, tx, id, title, content, authorID, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func appendVersion(ctx context.Context, db storage.Backend, docID, title, content, authorID, message string) (*models.DocumentVersion, error) {
	v := &models.DocumentVersion{
		DocumentID: docID,
		Title:      title,
		Content:    content,
		AuthorID:   authorID,
		Message:    message,
		CreatedAt:  models.NowMillis(),
	}

	// MAX+1 is race-free here: the backend serializes through one
	// connection and this always runs inside the caller's transaction.
	err := db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = ?`,
		docID).Scan(&v.Number)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO document_versions (document_id, version_number, title, content, author_id, commit_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.DocumentID, v.Number, v.Title, v.Content, v.AuthorID, v.Message, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("appending version: %w", err)
	}
	return v, nil
}

// VersionHistory returns the document's versions, newest first. Ownership is
// checked first; a non-owner sees common.ErrNotFound, never an empty history.
func (s *Store) VersionHistory(ctx context.Context, id, ownerID string) ([]models.DocumentVersion, error) {
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT document_id, version_number, title, content, author_id, commit_message, created_at
		 FROM document_versions WHERE document_id = ?
		 ORDER BY version_number DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	versions := make([]models.DocumentVersion, 0)
	for rows.Next() {
		var v models.DocumentVersion
		if err := rows.Scan(&v.DocumentID, &v.Number, &v.Title, &v.Content, &v.AuthorID, &v.Message, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *Store) version(ctx context.Context, db storage.Backend, docID string, number int64) (*models.DocumentVersion, error) {
	v := &models.DocumentVersion{}
	err := db.QueryRow(ctx,
		`SELECT document_id, version_number, title, content, author_id, commit_message, created_at
		 FROM document_versions WHERE document_id = ? AND version_number = ?`,
		docID, number).
		Scan(&v.DocumentID, &v.Number, &v.Title, &v.Content, &v.AuthorID, &v.Message, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetching version: %w", err)
	}
	return v, nil
}

// RestoreVersion copies the target version's title and content into the
// document and appends a NEW version recording the restore. History is never
// rewritten.
func (s *Store) RestoreVersion(ctx context.Context, id, ownerID string, number int64, authorID string) (*models.DocumentVersion, error) {
	var restored *models.DocumentVersion

	err := s.db.WithTx(ctx, func(ctx context.Context, tx storage.Backend) error {
		if _, err := s.get(ctx, tx, id, ownerID); err != nil {
			return err
		}
		target, err := s.version(ctx, tx, id, number)
		if err != nil {
			return err
		}
		if _, err := s.save(ctx, tx, id, target.Title, target.Content, ownerID); err != nil {
			return err
		}
		restored, err = appendVersion(ctx, tx, id, target.Title, target.Content, authorID,
			fmt.Sprintf("restore of version %d", number))
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// CreateBranch records a named branch pointing at fromVersion. Branch names
// are unique per document.
func (s *Store) CreateBranch(ctx context.Context, id, ownerID, name string, fromVersion int64) (*models.Branch, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: branch name is required", common.ErrValidation)
	}
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.version(ctx, s.db, id, fromVersion); err != nil {
		return nil, err
	}

	b := &models.Branch{
		ID:          uuid.NewString(),
		DocumentID:  id,
		Name:        name,
		FromVersion: fromVersion,
		CreatedAt:   models.NowMillis(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO document_branches (id, document_id, name, from_version, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.DocumentID, b.Name, b.FromVersion, b.CreatedAt)
	if err != nil {
		if errors.Is(err, storage.ErrConstraint) {
			return nil, fmt.Errorf("%w: branch %q", common.ErrDuplicate, name)
		}
		return nil, fmt.Errorf("creating branch: %w", err)
	}
	return b, nil
}

// Branches lists the document's branches in creation order.
func (s *Store) Branches(ctx context.Context, id, ownerID string) ([]models.Branch, error) {
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, name, from_version, created_at
		 FROM document_branches WHERE document_id = ?
		 ORDER BY created_at, name`, id)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	branches := make([]models.Branch, 0)
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.DocumentID, &b.Name, &b.FromVersion, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return branches, nil
}

// CreateTag labels one version. Tag names are unique per document.
func (s *Store) CreateTag(ctx context.Context, id, ownerID string, number int64, name string) (*models.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", common.ErrValidation)
	}
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.version(ctx, s.db, id, number); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		DocumentID: id,
		Number:     number,
		Name:       name,
		CreatedAt:  models.NowMillis(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO document_version_tags (document_id, version_number, name, created_at)
		 VALUES (?, ?, ?, ?)`,
		tag.DocumentID, tag.Number, tag.Name, tag.CreatedAt)
	if err != nil {
		if errors.Is(err, storage.ErrConstraint) {
			return nil, fmt.Errorf("%w: tag %q", common.ErrDuplicate, name)
		}
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	return tag, nil
}

// Tags lists the document's tags in creation order.
func (s *Store) Tags(ctx context.Context, id, ownerID string) ([]models.Tag, error) {
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT document_id, version_number, name, created_at
		 FROM document_version_tags WHERE document_id = ?
		 ORDER BY created_at, name`, id)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0)
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.DocumentID, &tag.Number, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
