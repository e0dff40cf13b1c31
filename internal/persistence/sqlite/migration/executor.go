package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Executor runs individual migrations against the database and maintains the
// schema_migrations version table.
type Executor struct {
	db *sql.DB
}

// NewExecutor constructs an Executor bound to the given database.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if needed.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL
		)
	`
	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migration: failed to initialise version table: %w", err)
	}
	return nil
}

// IsVersionApplied reports whether the given version has already run.
func (e *Executor) IsVersionApplied(ctx context.Context, version string) (bool, error) {
	var count int
	err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("migration: failed to check version %s: %w", version, err)
	}
	return count > 0, nil
}

// AppliedVersions returns all applied migrations ordered by version.
func (e *Executor) AppliedVersions(ctx context.Context) ([]Applied, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT version, applied_at, execution_time_ms FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("migration: failed to list applied versions: %w", err)
	}
	defer rows.Close()

	var applied []Applied
	for rows.Next() {
		var (
			record    Applied
			appliedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&record.Version, &appliedAt, &elapsedMS); err != nil {
			return nil, fmt.Errorf("migration: failed to scan applied version: %w", err)
		}
		if record.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, fmt.Errorf("migration: failed to parse applied_at for %s: %w", record.Version, err)
		}
		record.ExecutionTime = time.Duration(elapsedMS) * time.Millisecond
		applied = append(applied, record)
	}

	return applied, rows.Err()
}

// Execute runs a single migration and records it, all inside one transaction
// so a failure leaves neither partial schema nor a bogus version row.
func (e *Executor) Execute(ctx context.Context, m Migration) error {
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExecutionError{Version: m.Version, Err: err}
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return &ExecutionError{Version: m.Version, Err: err}
	}

	record := "INSERT INTO schema_migrations (version, applied_at, execution_time_ms) VALUES (?, ?, ?)"
	elapsed := time.Since(start)
	if _, err := tx.ExecContext(ctx, record, m.Version, start.UTC().Format(time.RFC3339), elapsed.Milliseconds()); err != nil {
		_ = tx.Rollback()
		return &ExecutionError{Version: m.Version, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &ExecutionError{Version: m.Version, Err: err}
	}

	return nil
}
