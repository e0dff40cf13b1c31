// Package migration provides a versioned schema migration system for the
// SQLite database.
//
// Migrations are SQL files named {version}_{description}.sql (for example
// "001_initial_schema.sql") provided through an fs.FS, typically an embed.FS
// so the binary carries its own schema. Each migration executes inside a
// transaction and is recorded in a schema_migrations table so it runs exactly
// once; a failed migration rolls back and aborts the run.
package migration
