// Package apply executes a rewritten dump against a PostgreSQL database.
package apply

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lib/pq"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "postgres"

// Result summarises an Apply call.
type Result struct {
	Statements   int
	RowsAffected int64
}

// Applier runs dumps inside a single transaction.
type Applier struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to PostgreSQL using lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", describe(err))
	}
	return db, nil
}

// New creates an Applier over db. A nil logger discards output.
func New(db *sql.DB, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Applier{db: db, logger: logger}
}

// Apply splits doc into statements and executes them in order inside one
// transaction. Any failure rolls the whole dump back.
func (a *Applier) Apply(ctx context.Context, doc string) (Result, error) {
	var result Result
	statements := SplitStatements(doc)
	if len(statements) == 0 {
		return result, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", describe(err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for i, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return Result{}, fmt.Errorf("statement %d: %w", i+1, describe(err))
		}
		if n, err := res.RowsAffected(); err == nil {
			result.RowsAffected += n
		}
		result.Statements++
		a.logger.Debug("statement applied", "index", i+1, "bytes", len(stmt))
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit: %w", describe(err))
	}
	a.logger.Info("dump applied", "statements", result.Statements, "rows", result.RowsAffected)
	return result, nil
}

// describe adds the SQLSTATE and server detail of a PostgreSQL error.
func describe(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	msg := fmt.Sprintf("%s (SQLSTATE %s)", pqErr.Message, pqErr.Code)
	if pqErr.Detail != "" {
		msg += ": " + pqErr.Detail
	}
	return fmt.Errorf("%s: %w", msg, err)
}
