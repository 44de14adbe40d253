package storage

import (
	"context"
	"database/sql"

	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/migrations"
	"github.com/pressly/goose/v3"
)

// Config selects the engine. When PostgresDSN is set and the server answers,
// Postgres is used; otherwise SQLitePath. The probe happens exactly once, in
// Open, and the decision holds for the process lifetime.
type Config struct {
	PostgresDSN string
	SQLitePath  string
}

// Open probes the configured engines once and returns the backend that will
// serve every store for the rest of the process.
func Open(ctx context.Context, cfg Config, log logging.Logger) (Backend, error) {
	if cfg.PostgresDSN != "" {
		b, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err == nil {
			log.Info(ctx, "storage engine selected", "engine", EnginePostgres)
			return b, nil
		}
		log.Warn(ctx, "postgres unreachable, falling back to sqlite", "error", err)
	}

	b, err := OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "storage engine selected", "engine", EngineSQLite, "path", cfg.SQLitePath)
	return b, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "sqlite")
}

func migratePostgres(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "postgres")
}
