package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestOpenSQLite_AppliesSchema(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	for _, table := range []string{"users", "documents", "document_versions", "document_branches", "document_version_tags"} {
		var name string
		err := b.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
		assert.Equal(t, table, name)
	}
}

func TestExec_ReportsRowsAffected(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	res, err := b.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
		"u1", "a@x.com", "alice", "h", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	res, err = b.Exec(ctx, `DELETE FROM users WHERE id=?`, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)
}

func TestQueryRow_MissIsErrNoRows(t *testing.T) {
	b := setupBackend(t)

	var id string
	err := b.QueryRow(context.Background(), `SELECT id FROM users WHERE id=?`, "nope").Scan(&id)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestExec_UniqueViolationIsErrConstraint(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	_, err := b.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
		"u1", "a@x.com", "alice", "h", 1, 1)
	require.NoError(t, err)

	_, err = b.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
		"u2", "a@x.com", "bob", "h", 1, 1)
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestExec_ForeignKeyViolationIsErrConstraint(t *testing.T) {
	b := setupBackend(t)

	_, err := b.Exec(context.Background(),
		`INSERT INTO documents (id, title, content, owner_id, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
		"d1", "t", "c", "no-such-user", 1, 1)
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := b.WithTx(ctx, func(ctx context.Context, tx Backend) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
			"u1", "a@x.com", "alice", "h", 1, 1)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, b.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTx_CommitsOnNil(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	err := b.WithTx(ctx, func(ctx context.Context, tx Backend) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
			"u1", "a@x.com", "alice", "h", 1, 1)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, b.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPrepare_Roundtrip(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	ins, err := b.Prepare(ctx, `INSERT INTO users (id, email, username, password_hash, created_at, updated_at) VALUES (?,?,?,?,?,?)`)
	require.NoError(t, err)
	defer ins.Close()

	for _, u := range []string{"alice", "bob"} {
		_, err := ins.Exec(ctx, "id-"+u, u+"@x.com", u, "h", 1, 1)
		require.NoError(t, err)
	}

	sel, err := b.Prepare(ctx, `SELECT username FROM users ORDER BY username`)
	require.NoError(t, err)
	defer sel.Close()

	rows, err := sel.Query(ctx)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"alice", "bob"}, names)
}
