package migration

import "time"

// Migration represents a single schema migration with its metadata and SQL.
type Migration struct {
	Version     string // version identifier, e.g. "001"
	Description string // human readable description derived from the file name
	SQL         string // SQL statements to execute
	Path        string // source path inside the migration filesystem
}

// Applied represents a migration that has been successfully executed.
type Applied struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion string
	Applied        []Applied
	Pending        []Migration
}
