package sqlite

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/example/slotswapper/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store bundles the connection pool with the repositories built on top of it.
type Store struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users        *UserRepository
	Slots        *SlotRepository
	SwapRequests *SwapRequestRepository
	Sessions     *SessionRepository
}

// Open connects to the SQLite database at dsn and constructs the repository
// set. Call Migrate before issuing queries against a fresh database.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(DefaultPoolConfig(dsn))
	if err != nil {
		return nil, err
	}

	return &Store{
		pool:         pool,
		logger:       logger,
		Users:        NewUserRepository(pool),
		Slots:        NewSlotRepository(pool),
		SwapRequests: NewSwapRequestRepository(pool),
		Sessions:     NewSessionRepository(pool),
	}, nil
}

// Migrate applies all pending schema migrations embedded in the binary.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(s.pool.DB(), migrationsFS, "migrations", s.logger)
	return manager.Run(ctx)
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func parseTimePtr(value string) (*time.Time, error) {
	parsed, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
