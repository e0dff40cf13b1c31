package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/slotswapper/internal/application"
	"github.com/example/slotswapper/internal/persistence"
)

var (
	userCounter    uint64
	slotCounter    uint64
	requestCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Slot fixtures -----------------------------

// SlotFixture represents a deterministic calendar slot.
type SlotFixture struct {
	ID        string
	OwnerID   string
	Title     string
	Start     time.Time
	End       time.Time
	Status    persistence.SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotOption configures the generated slot fixture.
type SlotOption func(*SlotFixture)

// NewSlotFixture returns a deterministic slot fixture. Each invocation yields
// a one hour BUSY slot starting one hour after the previous one.
func NewSlotFixture(opts ...SlotOption) SlotFixture {
	idx := atomic.AddUint64(&slotCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := SlotFixture{
		ID:        fmt.Sprintf("slot-%03d", idx),
		OwnerID:   "user-001",
		Title:     fmt.Sprintf("Slot %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		Status:    persistence.SlotBusy,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(f *SlotFixture) {
		f.ID = id
	}
}

// WithSlotOwner overrides the owner of the generated slot.
func WithSlotOwner(ownerID string) SlotOption {
	return func(f *SlotFixture) {
		f.OwnerID = ownerID
	}
}

// WithSlotTitle overrides the slot title.
func WithSlotTitle(title string) SlotOption {
	return func(f *SlotFixture) {
		f.Title = title
	}
}

// WithSlotStatus overrides the slot status.
func WithSlotStatus(status persistence.SlotStatus) SlotOption {
	return func(f *SlotFixture) {
		f.Status = status
	}
}

// WithSlotInterval overrides the start and end times.
func WithSlotInterval(start, end time.Time) SlotOption {
	return func(f *SlotFixture) {
		f.Start = start
		f.End = end
	}
}

// Application returns the fixture as an application.Slot value.
func (f SlotFixture) Application() application.Slot {
	return application.Slot{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		Status:    application.SlotStatus(f.Status),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Slot value.
func (f SlotFixture) Persistence() persistence.Slot {
	return persistence.Slot{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ------------------------- Swap request fixtures -------------------------

// SwapRequestFixture represents a deterministic swap request.
type SwapRequestFixture struct {
	ID              string
	RequesterID     string
	RequesterSlotID string
	TargetSlotID    string
	Status          persistence.RequestStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SwapRequestOption configures the generated swap request fixture.
type SwapRequestOption func(*SwapRequestFixture)

// NewSwapRequestFixture returns a deterministic PENDING swap request fixture.
func NewSwapRequestFixture(opts ...SwapRequestOption) SwapRequestFixture {
	idx := atomic.AddUint64(&requestCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SwapRequestFixture{
		ID:              fmt.Sprintf("request-%03d", idx),
		RequesterID:     "user-001",
		RequesterSlotID: "slot-001",
		TargetSlotID:    "slot-002",
		Status:          persistence.RequestPending,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRequestID overrides the generated request ID.
func WithRequestID(id string) SwapRequestOption {
	return func(f *SwapRequestFixture) {
		f.ID = id
	}
}

// WithRequester overrides the requester of the generated request.
func WithRequester(userID string) SwapRequestOption {
	return func(f *SwapRequestFixture) {
		f.RequesterID = userID
	}
}

// WithRequestSlots overrides the two slots bound to the request.
func WithRequestSlots(requesterSlotID, targetSlotID string) SwapRequestOption {
	return func(f *SwapRequestFixture) {
		f.RequesterSlotID = requesterSlotID
		f.TargetSlotID = targetSlotID
	}
}

// WithRequestStatus overrides the request status.
func WithRequestStatus(status persistence.RequestStatus) SwapRequestOption {
	return func(f *SwapRequestFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.SwapRequest value.
func (f SwapRequestFixture) Application() application.SwapRequest {
	return application.SwapRequest{
		ID:              f.ID,
		RequesterID:     f.RequesterID,
		RequesterSlotID: f.RequesterSlotID,
		TargetSlotID:    f.TargetSlotID,
		Status:          application.RequestStatus(f.Status),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.SwapRequest value.
func (f SwapRequestFixture) Persistence() persistence.SwapRequest {
	return persistence.SwapRequest{
		ID:              f.ID,
		RequesterID:     f.RequesterID,
		RequesterSlotID: f.RequesterSlotID,
		TargetSlotID:    f.TargetSlotID,
		Status:          f.Status,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture valid for 24 hours
// from the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser overrides the user bound to the session.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the session token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the session expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session as revoked at the given instant.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   f.RevokedAt,
	}
}
