package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileName is returned when a migration file does not follow
	// the {version}_{description}.sql naming convention.
	ErrInvalidFileName = errors.New("migration: invalid file name")
	// ErrDuplicateVersion is returned when two migration files share a version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrEmptyMigration is returned when a migration file contains no SQL.
	ErrEmptyMigration = errors.New("migration: empty migration file")
)

// ExecutionError wraps a failure while executing a specific migration so
// callers can report which version broke the run.
type ExecutionError struct {
	Version string
	Err     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Version, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}
