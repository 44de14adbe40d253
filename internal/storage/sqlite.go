package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteBackend is the database/sql engine shape over the pure-Go SQLite
// driver. It serializes access through a single connection: SQLite allows one
// writer, and a single conn keeps in-memory test databases stable.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", classify(err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", classify(err))
	}

	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Engine() Engine { return EngineSQLite }

func (b *SQLiteBackend) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return sqlExec(ctx, b.db, query, args...)
}

func (b *SQLiteBackend) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: b.db.QueryRowContext(ctx, query, args...)}
}

func (b *SQLiteBackend) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return sqlRows{rows: rows}, nil
}

func (b *SQLiteBackend) Prepare(ctx context.Context, query string) (Stmt, error) {
	st, err := b.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlStmt{st: st}, nil
}

func (b *SQLiteBackend) WithTx(ctx context.Context, fn func(ctx context.Context, tx Backend) error) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = classify(tx.Commit())
	}()

	err = fn(ctx, &sqliteTx{tx: tx})
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// sqliteTx adapts *sql.Tx to Backend so repositories run unchanged inside a
// transaction. Nested WithTx reuses the same transaction.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Engine() Engine { return EngineSQLite }

func (t *sqliteTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return sqlExec(ctx, t.tx, query, args...)
}

func (t *sqliteTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: t.tx.QueryRowContext(ctx, query, args...)}
}

func (t *sqliteTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return sqlRows{rows: rows}, nil
}

func (t *sqliteTx) Prepare(ctx context.Context, query string) (Stmt, error) {
	st, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlStmt{st: st}, nil
}

func (t *sqliteTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx Backend) error) error {
	return fn(ctx, t)
}

func (t *sqliteTx) Close() error { return nil }

// sqlExecutor is the subset shared by *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqlExec(ctx context.Context, ex sqlExecutor, query string, args ...any) (Result, error) {
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, classify(err)
	}
	lastID, _ := res.LastInsertId()
	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoRows
		}
		return classify(err)
	}
	return nil
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool           { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return classify(r.rows.Scan(dest...)) }
func (r sqlRows) Err() error           { return classify(r.rows.Err()) }
func (r sqlRows) Close() error         { return r.rows.Close() }

type sqlStmt struct {
	st *sql.Stmt
}

func (s *sqlStmt) Exec(ctx context.Context, args ...any) (Result, error) {
	res, err := s.st.ExecContext(ctx, args...)
	if err != nil {
		return Result{}, classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, classify(err)
	}
	lastID, _ := res.LastInsertId()
	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

func (s *sqlStmt) QueryRow(ctx context.Context, args ...any) Row {
	return sqlRow{row: s.st.QueryRowContext(ctx, args...)}
}

func (s *sqlStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.st.QueryContext(ctx, args...)
	if err != nil {
		return nil, classify(err)
	}
	return sqlRows{rows: rows}, nil
}

func (s *sqlStmt) Close() error { return s.st.Close() }
