package documents

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/storage"
	"github.com/mkraev/dockeep/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore creates a fresh backend with two registered users and returns
// the document store plus their ids.
func setupStore(t *testing.T) (*Store, storage.Backend, string, string) {
	t.Helper()
	ctx := context.Background()

	b, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	us := users.New(b)
	alice, err := us.CreateUser(ctx, "a@x.com", "alice", "pw1234")
	require.NoError(t, err)
	bob, err := us.CreateUser(ctx, "b@x.com", "bob", "pw5678")
	require.NoError(t, err)

	return New(b), b, alice.ID, bob.ID
}

func TestSaveDocument_Idempotent(t *testing.T) {
	s, b, alice, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, "doc-1", "T", "<p>hi</p>", alice)
	require.NoError(t, err)
	_, err = s.SaveDocument(ctx, "doc-1", "T", "<p>hi</p>", alice)
	require.NoError(t, err)

	var count int
	require.NoError(t, b.QueryRow(ctx, `SELECT count(*) FROM documents WHERE id=?`, "doc-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveDocument_UpdateKeepsOwner(t *testing.T) {
	s, _, alice, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, "doc-1", "v1", "a", alice)
	require.NoError(t, err)

	d, err := s.SaveDocument(ctx, "doc-1", "v2", "b", alice)
	require.NoError(t, err)
	assert.Equal(t, "v2", d.Title)
	assert.Equal(t, alice, d.OwnerID)
}

func TestSaveDocument_OtherOwnersIdIsNotFound(t *testing.T) {
	s, _, alice, bob := setupStore(t)
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, "doc-1", "T", "c", alice)
	require.NoError(t, err)

	_, err = s.SaveDocument(ctx, "doc-1", "hijack", "x", bob)
	assert.ErrorIs(t, err, common.ErrNotFound)

	d, err := s.UserDocument(ctx, "doc-1", alice)
	require.NoError(t, err)
	assert.Equal(t, "T", d.Title)
}

func TestUserDocuments_OrderedByUpdatedDesc(t *testing.T) {
	s, b, alice, _ := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3"} {
		_, err := s.SaveDocument(ctx, id, "t-"+id, "c", alice)
		require.NoError(t, err)
	}
	// Force distinct timestamps.
	for i, id := range []string{"d2", "d3", "d1"} {
		_, err := b.Exec(ctx, `UPDATE documents SET updated_at=? WHERE id=?`, int64(1000+i), id)
		require.NoError(t, err)
	}

	list, err := s.UserDocuments(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "d1", list[0].ID)
	assert.Equal(t, "d3", list[1].ID)
	assert.Equal(t, "d2", list[2].ID)
}

func TestUserDocument_CrossOwnerIsNotFound(t *testing.T) {
	s, _, alice, bob := setupStore(t)
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, "doc-1", "T", "c", alice)
	require.NoError(t, err)

	_, err = s.UserDocument(ctx, "doc-1", bob)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.UserDocument(ctx, "missing", alice)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteUserDocument_ReportsRowsAffected(t *testing.T) {
	s, _, alice, bob := setupStore(t)
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, "doc-1", "T", "c", alice)
	require.NoError(t, err)

	n, err := s.DeleteUserDocument(ctx, "doc-1", bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.DeleteUserDocument(ctx, "doc-1", alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteUserDocument(ctx, "doc-1", alice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMarkSaved_ClearsDirtiness(t *testing.T) {
	s, _, alice, _ := setupStore(t)
	ctx := context.Background()

	d, err := s.SaveDocument(ctx, "doc-1", "T", "c", alice)
	require.NoError(t, err)
	assert.True(t, d.Dirty())

	require.NoError(t, s.MarkSaved(ctx, "doc-1", alice))

	d, err = s.UserDocument(ctx, "doc-1", alice)
	require.NoError(t, err)
	assert.False(t, d.Dirty())
}
