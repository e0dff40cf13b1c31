package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/slotswapper/internal/persistence"
)

// SlotStore captures the persistence interactions needed by the slot ledger.
type SlotStore interface {
	CreateSlot(ctx context.Context, slot Slot) (Slot, error)
	GetSlot(ctx context.Context, id string) (Slot, error)
	UpdateSlotStatus(ctx context.Context, id, ownerID string, status SlotStatus, updatedAt time.Time) (Slot, error)
	DeleteSlot(ctx context.Context, id, ownerID string, deletedAt time.Time) error
	ListSlotsByOwner(ctx context.Context, ownerID string) ([]Slot, error)
	ListSwappableSlotsExcluding(ctx context.Context, ownerID string) ([]MarketplaceSlot, error)
}

// SlotService owns calendar slot records and enforces status transition
// legality for user-facing operations. Users may only toggle a slot between
// BUSY and SWAPPABLE; SWAP_PENDING belongs to the negotiation engine.
type SlotService struct {
	slots       SlotStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSlotService wires dependencies for slot ledger operations.
func NewSlotService(slots SlotStore, idGenerator func() string, now func() time.Time) *SlotService {
	return NewSlotServiceWithLogger(slots, idGenerator, now, nil)
}

// NewSlotServiceWithLogger constructs a SlotService with a specified logger.
func NewSlotServiceWithLogger(slots SlotStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SlotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SlotService{
		slots:       slots,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SlotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SlotService", operation, attrs...)
}

// CreateSlot validates the input and persists a new BUSY slot for the caller.
func (s *SlotService) CreateSlot(ctx context.Context, params CreateSlotParams) (slot Slot, err error) {
	if s == nil {
		err = fmt.Errorf("SlotService is nil")
		return
	}
	if s.slots == nil {
		err = fmt.Errorf("slot store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSlot", "owner_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("slot_id", slot.ID).InfoContext(ctx, "slot created")
	}()

	vErr := &ValidationError{}
	validateSlotInput(params.Input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	slot, err = s.slots.CreateSlot(ctx, Slot{
		ID:        s.idGenerator(),
		OwnerID:   params.Principal.UserID,
		Title:     strings.TrimSpace(params.Input.Title),
		Start:     params.Input.Start,
		End:       params.Input.End,
		Status:    SlotBusy,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	return
}

// UpdateSlotStatus toggles a slot between BUSY and SWAPPABLE on behalf of its
// owner. Requesting SWAP_PENDING, or any value outside the enumeration, fails
// with a ValidationError; toggling a slot that is currently locked by a
// pending swap fails with ErrConflict.
func (s *SlotService) UpdateSlotStatus(ctx context.Context, params UpdateSlotStatusParams) (slot Slot, err error) {
	if s == nil {
		err = fmt.Errorf("SlotService is nil")
		return
	}
	if s.slots == nil {
		err = fmt.Errorf("slot store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSlotStatus",
		"slot_id", params.SlotID,
		"status", string(params.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot status update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot status updated")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.SlotID) == "" {
		vErr.add("slot_id", "slot id is required")
	}
	switch params.Status {
	case SlotBusy, SlotSwappable:
	case SlotSwapPending:
		vErr.add("status", "status SWAP_PENDING is managed by the swap engine")
	default:
		vErr.add("status", "status must be BUSY or SWAPPABLE")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	slot, err = s.slots.UpdateSlotStatus(ctx, params.SlotID, params.Principal.UserID, params.Status, s.now())
	if err != nil {
		err = mapStoreError(err)
		return
	}

	return
}

// DeleteSlot removes a slot owned by the caller. When the slot is locked by a
// pending swap request the store rejects that request and restores the
// counterpart slot as part of the same atomic unit, so no dangling PENDING
// request survives the delete.
func (s *SlotService) DeleteSlot(ctx context.Context, principal Principal, slotID string) (err error) {
	if s == nil {
		return fmt.Errorf("SlotService is nil")
	}
	if s.slots == nil {
		return fmt.Errorf("slot store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSlot", "slot_id", slotID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot deleted")
	}()

	if strings.TrimSpace(slotID) == "" {
		vErr := &ValidationError{}
		vErr.add("slot_id", "slot id is required")
		err = vErr
		return
	}

	if err = s.slots.DeleteSlot(ctx, slotID, principal.UserID, s.now()); err != nil {
		err = mapStoreError(err)
		return
	}

	return
}

// ListMySlots returns the caller's slots ordered by start time ascending.
func (s *SlotService) ListMySlots(ctx context.Context, principal Principal) ([]Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("SlotService is nil")
	}
	if s.slots == nil {
		return nil, fmt.Errorf("slot store not configured")
	}

	slots, err := s.slots.ListSlotsByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return slots, nil
}

// ListSwappableSlots returns the marketplace: every SWAPPABLE slot owned by
// someone else, joined with the owner display name, start time ascending.
func (s *SlotService) ListSwappableSlots(ctx context.Context, principal Principal) ([]MarketplaceSlot, error) {
	if s == nil {
		return nil, fmt.Errorf("SlotService is nil")
	}
	if s.slots == nil {
		return nil, fmt.Errorf("slot store not configured")
	}

	listings, err := s.slots.ListSwappableSlotsExcluding(ctx, principal.UserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return listings, nil
}

func validateSlotInput(input SlotInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
}

// mapStoreError translates persistence sentinels into the application error
// taxonomy shared by all services.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOwnerMismatch):
		return ErrUnauthorized
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}
