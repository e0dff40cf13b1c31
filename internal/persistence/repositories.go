package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account persistence operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SlotRepository stores calendar slots and their exchange status.
//
// DeleteSlot is an atomic unit: when the slot is referenced by a PENDING swap
// request, the request is rejected and the counterpart slot restored to
// SWAPPABLE inside the same transaction that removes the slot.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot Slot) error
	GetSlot(ctx context.Context, id string) (Slot, error)
	UpdateSlotStatus(ctx context.Context, id, ownerID string, status SlotStatus, updatedAt time.Time) (Slot, error)
	DeleteSlot(ctx context.Context, id, ownerID string, deletedAt time.Time) error
	ListSlotsByOwner(ctx context.Context, ownerID string) ([]Slot, error)
	ListSwappableSlotsExcluding(ctx context.Context, ownerID string) ([]MarketplaceSlot, error)
}

// SwapRequestRepository owns the swap-request lifecycle. CreateSwapRequest and
// ResolveSwapRequest are the two multi-record atomic units of the negotiation
// engine; each touches one request row and two slot rows inside a single
// transaction, using status-guarded updates so that concurrent callers racing
// on the same slot or request observe ErrConflict rather than partial state.
type SwapRequestRepository interface {
	CreateSwapRequest(ctx context.Context, request SwapRequest) (SwapRequest, error)
	GetSwapRequest(ctx context.Context, id string) (SwapRequest, error)
	ResolveSwapRequest(ctx context.Context, id, responderID string, accept bool, resolvedAt time.Time) (SwapRequest, error)
	ListIncomingRequests(ctx context.Context, ownerID string) ([]SwapRequestDetail, error)
	ListOutgoingRequests(ctx context.Context, requesterID string) ([]SwapRequestDetail, error)
	PendingRequestForSlot(ctx context.Context, slotID string) (SwapRequest, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
