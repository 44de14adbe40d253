package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Every driver error surfaces as exactly one of these, with the original
// cause wrapped and reachable through errors.Is / errors.As.
var (
	// ErrConstraint covers unique and foreign-key violations.
	ErrConstraint = errors.New("constraint violation")

	// ErrIO covers connection and file-level failures. Fatal to the
	// operation, not to the process.
	ErrIO = errors.New("storage i/o failure")

	// ErrNoRows is returned by Row.Scan when the query matched nothing.
	ErrNoRows = errors.New("no rows")

	// ErrInternal is the fallback classification.
	ErrInternal = errors.New("storage internal error")
)

// classify maps a driver error onto the package taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_BUSY:
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		// Class 23 is integrity_constraint_violation.
		if strings.HasPrefix(pe.Code, "23") {
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		}
		// Class 08 is connection_exception, 53 insufficient_resources.
		if strings.HasPrefix(pe.Code, "08") || strings.HasPrefix(pe.Code, "53") {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	var ne net.Error
	if errors.As(err, &ne) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return fmt.Errorf("%w: %w", ErrInternal, err)
}
