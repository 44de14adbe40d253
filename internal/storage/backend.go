// Package storage presents one prepared-statement contract over two SQL
// engines with different calling conventions: SQLite through database/sql
// (modernc driver) and PostgreSQL through the native pgx pool. The engine is
// probed once at process start and fixed for the process lifetime; call sites
// never branch on which engine is active.
//
// Queries are always written with '?' placeholders. The Postgres backend
// rebinds them to $n before execution.
package storage

import "context"

// Engine identifies the active driver. It exists for logging and migration
// dialect selection only; business code must not branch on it.
type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

// Result reports the outcome of a statement that does not return rows.
// LastInsertID is only populated by engines that support it and is zero for
// tables with client-generated ids.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Row is a single-row result. Scan returns ErrNoRows on a miss.
type Row interface {
	Scan(dest ...any) error
}

// Rows is an ordered result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Stmt is a handle bound to one query.
type Stmt interface {
	Exec(ctx context.Context, args ...any) (Result, error)
	QueryRow(ctx context.Context, args ...any) Row
	Query(ctx context.Context, args ...any) (Rows, error)
	Close() error
}

// Backend is the single storage contract shared by every store. Both engine
// implementations satisfy it, as do their transaction handles, so repository
// code runs unchanged inside WithTx.
type Backend interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Prepare(ctx context.Context, query string) (Stmt, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error or panic. The Backend passed to fn is the transactional
	// handle.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Backend) error) error

	Engine() Engine
	Close() error
}
