package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresBackend is the native-pgx engine shape: CommandTag results,
// pgx.Rows iteration, $n placeholders. Queries arrive written with '?' and
// are rebound before execution, so repositories stay dialect-free.
//
// Migrations run through a short-lived database/sql handle (goose needs one);
// all runtime traffic goes through the pool.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection, and applies pending
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	mdb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", classify(err))
	}
	if err := mdb.PingContext(ctx); err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("postgres ping: %w", classify(err))
	}
	if err := migratePostgres(ctx, mdb); err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	if err := mdb.Close(); err != nil {
		return nil, fmt.Errorf("postgres migration handle close: %w", classify(err))
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", classify(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres pool ping: %w", classify(err))
	}

	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Engine() Engine { return EnginePostgres }

func (b *PostgresBackend) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := b.pool.Exec(ctx, rebind(query), args...)
	if err != nil {
		return Result{}, classify(err)
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (b *PostgresBackend) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgxRow{row: b.pool.QueryRow(ctx, rebind(query), args...)}
}

func (b *PostgresBackend) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := b.pool.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgxRows{rows: rows}, nil
}

// Prepare returns a handle bound to the query. pgx caches prepared statements
// per connection, so the handle just pins the rebound SQL.
func (b *PostgresBackend) Prepare(_ context.Context, query string) (Stmt, error) {
	return &pgxStmt{q: rebind(query), exec: b.pool.Exec, query: b.pool.Query, queryRow: b.pool.QueryRow}, nil
}

func (b *PostgresBackend) WithTx(ctx context.Context, fn func(ctx context.Context, tx Backend) error) (err error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = classify(tx.Commit(ctx))
	}()

	err = fn(ctx, &postgresTx{tx: tx})
	return err
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

// postgresTx adapts pgx.Tx to Backend. Nested WithTx reuses the transaction.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Engine() Engine { return EnginePostgres }

func (t *postgresTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := t.tx.Exec(ctx, rebind(query), args...)
	if err != nil {
		return Result{}, classify(err)
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (t *postgresTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgxRow{row: t.tx.QueryRow(ctx, rebind(query), args...)}
}

func (t *postgresTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgxRows{rows: rows}, nil
}

func (t *postgresTx) Prepare(_ context.Context, query string) (Stmt, error) {
	return &pgxStmt{q: rebind(query), exec: t.tx.Exec, query: t.tx.Query, queryRow: t.tx.QueryRow}, nil
}

func (t *postgresTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx Backend) error) error {
	return fn(ctx, t)
}

func (t *postgresTx) Close() error { return nil }

type pgxRow struct {
	row pgx.Row
}

func (r pgxRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return classify(err)
	}
	return nil
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return classify(r.rows.Scan(dest...)) }
func (r *pgxRows) Err() error             { return classify(r.rows.Err()) }
func (r *pgxRows) Close() error           { r.rows.Close(); return nil }

type pgxStmt struct {
	q        string
	exec     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	query    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRow func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *pgxStmt) Exec(ctx context.Context, args ...any) (Result, error) {
	tag, err := s.exec(ctx, s.q, args...)
	if err != nil {
		return Result{}, classify(err)
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (s *pgxStmt) QueryRow(ctx context.Context, args ...any) Row {
	return pgxRow{row: s.queryRow(ctx, s.q, args...)}
}

func (s *pgxStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.query(ctx, s.q, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgxRows{rows: rows}, nil
}

func (s *pgxStmt) Close() error { return nil }
