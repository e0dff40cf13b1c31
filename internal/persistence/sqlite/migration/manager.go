package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager orchestrates the migration run: it discovers migration files,
// filters out already-applied versions, and executes the remainder in order.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	dir      string
	logger   *slog.Logger
}

// NewManager constructs a Manager reading migrations from dir inside fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scanner:  NewScanner(fsys),
		executor: NewExecutor(db),
		dir:      dir,
		logger:   logger,
	}
}

// Run executes all pending migrations in version order.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return err
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date")
		return nil
	}

	for _, mig := range pending {
		m.logger.InfoContext(ctx, "applying migration", "version", mig.Version, "description", mig.Description)
		if err := m.executor.Execute(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "error", err)
			return err
		}
	}

	m.logger.InfoContext(ctx, "migrations applied", "count", len(pending))
	return nil
}

// Pending returns migrations that have not been applied yet, in order.
func (m *Manager) Pending(ctx context.Context) ([]Migration, error) {
	all, err := m.scanner.Scan(m.dir)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range all {
		applied, err := m.executor.IsVersionApplied(ctx, mig.Version)
		if err != nil {
			return nil, err
		}
		if !applied {
			pending = append(pending, mig)
		}
	}

	return pending, nil
}

// Status reports the applied and pending migrations for diagnostics.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{Applied: applied, Pending: pending}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}

	return status, nil
}

// String implements fmt.Stringer for log friendliness.
func (s *Status) String() string {
	return fmt.Sprintf("current=%s applied=%d pending=%d", s.CurrentVersion, len(s.Applied), len(s.Pending))
}
