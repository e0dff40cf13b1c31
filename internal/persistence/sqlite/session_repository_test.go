package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/slotswapper/internal/persistence"
)

func seedSession(t *testing.T, store *Store, id, userID, token string, expiresAt time.Time) persistence.Session {
	t.Helper()

	session := persistence.Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	created, err := store.Sessions.CreateSession(context.Background(), session)
	if err != nil {
		t.Fatalf("seed session %s: %v", id, err)
	}
	return created
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user-1", "alice@example.com", "Alice")
	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	seedSession(t, store, "sess-1", "user-1", "token-1", expiry)

	fetched, err := store.Sessions.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", fetched.UserID)
	}
	if !fetched.ExpiresAt.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, fetched.ExpiresAt)
	}
	if fetched.RevokedAt != nil {
		t.Errorf("expected live session, got revoked at %v", fetched.RevokedAt)
	}
}

func TestSessionRepository_CreateSession_MissingFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user-1", "alice@example.com", "Alice")

	cases := map[string]persistence.Session{
		"missing id":   {UserID: "user-1", Token: "t"},
		"missing user": {ID: "sess-1", Token: "t"},
		"blank token":  {ID: "sess-1", UserID: "user-1", Token: "   "},
	}
	for name, session := range cases {
		if _, err := store.Sessions.CreateSession(ctx, session); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Errorf("%s: expected ErrConstraintViolation, got %v", name, err)
		}
	}
}

func TestSessionRepository_GetSession_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Sessions.GetSession(ctx, "unknown"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Sessions.GetSession(ctx, "  "); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank token, got %v", err)
	}
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user-1", "alice@example.com", "Alice")
	seedSession(t, store, "sess-1", "user-1", "token-1", time.Now().UTC().Add(time.Hour))

	revokedAt := time.Now().UTC().Truncate(time.Second)
	revoked, err := store.Sessions.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
	}

	// The record is kept so the token keeps resolving to a revoked session.
	fetched, err := store.Sessions.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession after revoke failed: %v", err)
	}
	if fetched.RevokedAt == nil {
		t.Fatal("expected revocation to persist")
	}
}

func TestSessionRepository_RevokeSession_Unknown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Sessions.RevokeSession(ctx, "unknown", time.Now().UTC()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "user-1", "alice@example.com", "Alice")
	now := time.Now().UTC().Truncate(time.Second)
	seedSession(t, store, "sess-old", "user-1", "token-old", now.Add(-time.Hour))
	seedSession(t, store, "sess-live", "user-1", "token-live", now.Add(time.Hour))

	if err := store.Sessions.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := store.Sessions.GetSession(ctx, "token-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session to be pruned, got %v", err)
	}
	if _, err := store.Sessions.GetSession(ctx, "token-live"); err != nil {
		t.Fatalf("expected live session to survive, got %v", err)
	}
}
