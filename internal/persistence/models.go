package persistence

import "time"

// SlotStatus enumerates the exchange-eligibility states of a calendar slot.
// The literal values are part of the API contract and are stored verbatim.
type SlotStatus string

const (
	// SlotBusy marks a slot that is not offered for exchange.
	SlotBusy SlotStatus = "BUSY"
	// SlotSwappable marks a slot its owner has opted into the marketplace.
	SlotSwappable SlotStatus = "SWAPPABLE"
	// SlotSwapPending marks a slot locked by an outstanding swap request.
	SlotSwapPending SlotStatus = "SWAP_PENDING"
)

// Valid reports whether the status is one of the enumerated values.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotBusy, SlotSwappable, SlotSwapPending:
		return true
	}
	return false
}

// RequestStatus enumerates the lifecycle states of a swap request.
type RequestStatus string

const (
	// RequestPending marks a request awaiting a response from the target owner.
	RequestPending RequestStatus = "PENDING"
	// RequestAccepted marks a request whose slot exchange was completed.
	RequestAccepted RequestStatus = "ACCEPTED"
	// RequestRejected marks a request declined by the target owner.
	RequestRejected RequestStatus = "REJECTED"
)

// Valid reports whether the status is one of the enumerated values.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
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

// MarketplaceSlot is a swappable slot joined with its owner's display identity.
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

// SwapRequestDetail joins a swap request with both slots and the identity of
// the counterparty, shaped for the incoming/outgoing listings.
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

// Session represents an authentication session persisted for a user.
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
