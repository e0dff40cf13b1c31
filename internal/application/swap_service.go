package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SwapRequestStore captures the persistence interactions needed by the
// negotiation engine. CreateSwapRequest and ResolveSwapRequest are atomic
// units: each applies its request-row and slot-row writes inside a single
// transaction and reports persistence conflict sentinels when a guard misses.
type SwapRequestStore interface {
	CreateSwapRequest(ctx context.Context, request SwapRequest) (SwapRequest, error)
	ResolveSwapRequest(ctx context.Context, id, responderID string, accept bool, resolvedAt time.Time) (SwapRequest, error)
	ListIncomingRequests(ctx context.Context, ownerID string) ([]SwapRequestDetail, error)
	ListOutgoingRequests(ctx context.Context, requesterID string) ([]SwapRequestDetail, error)
}

// SwapService orchestrates the swap-request lifecycle: it is the only writer
// of request records and the only component that moves slots into or out of
// SWAP_PENDING.
type SwapService struct {
	swaps       SwapRequestStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSwapService wires dependencies for swap negotiation operations.
func NewSwapService(swaps SwapRequestStore, idGenerator func() string, now func() time.Time) *SwapService {
	return NewSwapServiceWithLogger(swaps, idGenerator, now, nil)
}

// NewSwapServiceWithLogger constructs a SwapService with a specified logger.
func NewSwapServiceWithLogger(swaps SwapRequestStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SwapService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SwapService{
		swaps:       swaps,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SwapService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SwapService", operation, attrs...)
}

// RequestSwap opens a negotiation between the caller's slot and another
// user's slot. Both slots must be SWAPPABLE at the moment the unit commits;
// a slot claimed by a concurrent request surfaces as ErrConflict, never as a
// second PENDING request on the same slot.
func (s *SwapService) RequestSwap(ctx context.Context, params RequestSwapParams) (request SwapRequest, err error) {
	if s == nil {
		err = fmt.Errorf("SwapService is nil")
		return
	}
	if s.swaps == nil {
		err = fmt.Errorf("swap request store not configured")
		return
	}

	logger := s.loggerWith(ctx, "RequestSwap",
		"requester_id", params.Principal.UserID,
		"my_slot_id", params.MySlotID,
		"their_slot_id", params.TheirSlotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "swap request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID).InfoContext(ctx, "swap requested")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.MySlotID) == "" {
		vErr.add("my_slot_id", "my slot id is required")
	}
	if strings.TrimSpace(params.TheirSlotID) == "" {
		vErr.add("their_slot_id", "their slot id is required")
	}
	if params.MySlotID != "" && params.MySlotID == params.TheirSlotID {
		vErr.add("their_slot_id", "cannot swap a slot with itself")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	request, err = s.swaps.CreateSwapRequest(ctx, SwapRequest{
		ID:              s.idGenerator(),
		RequesterID:     params.Principal.UserID,
		RequesterSlotID: params.MySlotID,
		TargetSlotID:    params.TheirSlotID,
		Status:          RequestPending,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	return
}

// Respond resolves a pending request on behalf of the target slot's owner.
// Accept exchanges slot ownership and marks both slots BUSY; reject returns
// both slots to SWAPPABLE. A request that is no longer PENDING fails with
// ErrConflict and mutates nothing: ACCEPTED and REJECTED are terminal.
func (s *SwapService) Respond(ctx context.Context, params RespondParams) (request SwapRequest, err error) {
	if s == nil {
		err = fmt.Errorf("SwapService is nil")
		return
	}
	if s.swaps == nil {
		err = fmt.Errorf("swap request store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Respond",
		"request_id", params.RequestID,
		"responder_id", params.Principal.UserID,
		"accept", params.Accept,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "swap response failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(request.Status)).InfoContext(ctx, "swap request resolved")
	}()

	if strings.TrimSpace(params.RequestID) == "" {
		vErr := &ValidationError{}
		vErr.add("request_id", "request id is required")
		err = vErr
		return
	}

	request, err = s.swaps.ResolveSwapRequest(ctx, params.RequestID, params.Principal.UserID, params.Accept, s.now())
	if err != nil {
		err = mapStoreError(err)
		return
	}

	return
}

// ListIncoming returns PENDING requests aimed at slots the caller owns,
// newest first.
func (s *SwapService) ListIncoming(ctx context.Context, principal Principal) ([]SwapRequestDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("SwapService is nil")
	}
	if s.swaps == nil {
		return nil, fmt.Errorf("swap request store not configured")
	}

	details, err := s.swaps.ListIncomingRequests(ctx, principal.UserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return details, nil
}

// ListOutgoing returns every request the caller initiated, any status,
// newest first.
func (s *SwapService) ListOutgoing(ctx context.Context, principal Principal) ([]SwapRequestDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("SwapService is nil")
	}
	if s.swaps == nil {
		return nil, fmt.Errorf("swap request store not configured")
	}

	details, err := s.swaps.ListOutgoingRequests(ctx, principal.UserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return details, nil
}
