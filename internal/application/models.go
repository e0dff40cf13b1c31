package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// SlotStatus enumerates the exchange-eligibility states of a slot. The
// literal values round-trip unchanged through persistence and API responses.
type SlotStatus string

const (
	// SlotBusy marks a slot that is not offered for exchange.
	SlotBusy SlotStatus = "BUSY"
	// SlotSwappable marks a slot its owner has opted into the marketplace.
	SlotSwappable SlotStatus = "SWAPPABLE"
	// SlotSwapPending marks a slot locked by an outstanding swap request.
	// Only the negotiation engine moves slots into or out of this state.
	SlotSwapPending SlotStatus = "SWAP_PENDING"
)

// RequestStatus enumerates the lifecycle states of a swap request. PENDING is
// the only non-terminal state.
type RequestStatus string

const (
	// RequestPending marks a request awaiting the target owner's decision.
	RequestPending RequestStatus = "PENDING"
	// RequestAccepted marks a completed exchange.
	RequestAccepted RequestStatus = "ACCEPTED"
	// RequestRejected marks a declined exchange.
	RequestRejected RequestStatus = "REJECTED"
)

// SlotInput captures caller provided slot fields.
type SlotInput struct {
	Title string
	Start time.Time
	End   time.Time
}

// Slot represents a calendar interval owned by a single user.
type Slot struct {
	ID        string
	OwnerID   string
	Title     string
	Start     time.Time
	End       time.Time
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarketplaceSlot is a swappable slot joined with its owner's display name.
type MarketplaceSlot struct {
	Slot
	OwnerName string
}

// SwapRequest represents a proposal to exchange ownership of two slots.
type SwapRequest struct {
	ID              string
	RequesterID     string
	RequesterSlotID string
	TargetSlotID    string
	Status          RequestStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SwapRequestDetail joins a request with both slots and the identity of the
// counterparty for the incoming/outgoing listings.
type SwapRequestDetail struct {
	SwapRequest
	RequesterName    string
	RequesterEmail   string
	TargetOwnerID    string
	TargetOwnerName  string
	TargetOwnerEmail string
	RequesterSlot    Slot
	TargetSlot       Slot
}

// CreateSlotParams wraps the data required to create a slot.
type CreateSlotParams struct {
	Principal Principal
	Input     SlotInput
}

// UpdateSlotStatusParams wraps the data required to toggle a slot's status.
type UpdateSlotStatusParams struct {
	Principal Principal
	SlotID    string
	Status    SlotStatus
}

// RequestSwapParams wraps the data required to open a swap negotiation.
type RequestSwapParams struct {
	Principal   Principal
	MySlotID    string
	TheirSlotID string
}

// RespondParams wraps the data required to resolve a swap request.
type RespondParams struct {
	Principal Principal
	RequestID string
	Accept    bool
}

// User represents a registered account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// RegisterParams captures the data required to create an account.
type RegisterParams struct {
	DisplayName string
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful signup or login.
type AuthenticateResult struct {
	User    User
	Session Session
}
