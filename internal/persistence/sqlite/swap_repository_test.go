package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/slotswapper/internal/persistence"
)

func seedSwapPair(t *testing.T, store *Store) {
	t.Helper()

	seedUser(t, store, "user-1", "alice@example.com", "Alice")
	seedUser(t, store, "user-2", "bob@example.com", "Bob")
	seedSlot(t, store, "slot-a", "user-1", persistence.SlotSwappable)
	seedSlot(t, store, "slot-b", "user-2", persistence.SlotSwappable)
}

func newSwapRequest(id string) persistence.SwapRequest {
	return persistence.SwapRequest{
		ID:              id,
		RequesterID:     "user-1",
		RequesterSlotID: "slot-a",
		TargetSlotID:    "slot-b",
	}
}

func TestSwapRequestRepository_CreateSwapRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	created, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1"))
	if err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}
	if created.Status != persistence.RequestPending {
		t.Fatalf("expected PENDING, got %s", created.Status)
	}

	// Both slots are locked inside the same transaction.
	for _, slotID := range []string{"slot-a", "slot-b"} {
		slot, err := store.Slots.GetSlot(ctx, slotID)
		if err != nil {
			t.Fatalf("GetSlot %s failed: %v", slotID, err)
		}
		if slot.Status != persistence.SlotSwapPending {
			t.Errorf("expected %s locked to SWAP_PENDING, got %s", slotID, slot.Status)
		}
	}

	fetched, err := store.SwapRequests.GetSwapRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetSwapRequest failed: %v", err)
	}
	if fetched.RequesterSlotID != "slot-a" || fetched.TargetSlotID != "slot-b" {
		t.Fatalf("unexpected request retrieved: %#v", fetched)
	}
}

func TestSwapRequestRepository_CreateSwapRequest_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	request := newSwapRequest("req-1")
	request.TargetSlotID = "slot-a"
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, request); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for same-slot request, got %v", err)
	}

	request = newSwapRequest("req-1")
	request.RequesterSlotID = ""
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, request); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for missing slot, got %v", err)
	}
}

func TestSwapRequestRepository_CreateSwapRequest_GuardMisses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)
	seedSlot(t, store, "slot-busy", "user-2", persistence.SlotBusy)

	request := newSwapRequest("req-1")
	request.TargetSlotID = "ghost"
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, request); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}

	request = newSwapRequest("req-1")
	request.RequesterID = "user-2"
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, request); !errors.Is(err, persistence.ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch for foreign requester slot, got %v", err)
	}

	request = newSwapRequest("req-1")
	request.TargetSlotID = "slot-busy"
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, request); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict for BUSY target, got %v", err)
	}

	// Guard misses roll the whole unit back: slot-a stays SWAPPABLE.
	slot, err := store.Slots.GetSlot(ctx, "slot-a")
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if slot.Status != persistence.SlotSwappable {
		t.Fatalf("expected slot-a returned to SWAPPABLE, got %s", slot.Status)
	}
}

func TestSwapRequestRepository_CreateSwapRequest_SlotAlreadyClaimed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)
	seedUser(t, store, "user-3", "carol@example.com", "Carol")
	seedSlot(t, store, "slot-c", "user-3", persistence.SlotSwappable)

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("first CreateSwapRequest failed: %v", err)
	}

	second := persistence.SwapRequest{
		ID:              "req-2",
		RequesterID:     "user-3",
		RequesterSlotID: "slot-c",
		TargetSlotID:    "slot-b",
	}
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, second); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict for already claimed target, got %v", err)
	}

	// The loser's slot is released by the rollback.
	slot, err := store.Slots.GetSlot(ctx, "slot-c")
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if slot.Status != persistence.SlotSwappable {
		t.Fatalf("expected slot-c returned to SWAPPABLE, got %s", slot.Status)
	}
}

func TestSwapRequestRepository_ResolveSwapRequest_Accept(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}

	resolvedAt := time.Now().UTC().Truncate(time.Second)
	resolved, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", true, resolvedAt)
	if err != nil {
		t.Fatalf("ResolveSwapRequest failed: %v", err)
	}
	if resolved.Status != persistence.RequestAccepted {
		t.Fatalf("expected ACCEPTED, got %s", resolved.Status)
	}

	// Ownership is exchanged and both slots settle as BUSY.
	slotA, err := store.Slots.GetSlot(ctx, "slot-a")
	if err != nil {
		t.Fatalf("GetSlot slot-a failed: %v", err)
	}
	slotB, err := store.Slots.GetSlot(ctx, "slot-b")
	if err != nil {
		t.Fatalf("GetSlot slot-b failed: %v", err)
	}
	if slotA.OwnerID != "user-2" || slotB.OwnerID != "user-1" {
		t.Fatalf("expected owners exchanged, got slot-a=%s slot-b=%s", slotA.OwnerID, slotB.OwnerID)
	}
	if slotA.Status != persistence.SlotBusy || slotB.Status != persistence.SlotBusy {
		t.Fatalf("expected both slots BUSY, got %s and %s", slotA.Status, slotB.Status)
	}
}

func TestSwapRequestRepository_ResolveSwapRequest_Reject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}

	resolved, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", false, time.Now().UTC())
	if err != nil {
		t.Fatalf("ResolveSwapRequest failed: %v", err)
	}
	if resolved.Status != persistence.RequestRejected {
		t.Fatalf("expected REJECTED, got %s", resolved.Status)
	}

	// Ownership is untouched and both slots return to the marketplace.
	for slotID, wantOwner := range map[string]string{"slot-a": "user-1", "slot-b": "user-2"} {
		slot, err := store.Slots.GetSlot(ctx, slotID)
		if err != nil {
			t.Fatalf("GetSlot %s failed: %v", slotID, err)
		}
		if slot.OwnerID != wantOwner {
			t.Errorf("expected %s owned by %s, got %s", slotID, wantOwner, slot.OwnerID)
		}
		if slot.Status != persistence.SlotSwappable {
			t.Errorf("expected %s SWAPPABLE, got %s", slotID, slot.Status)
		}
	}
}

func TestSwapRequestRepository_ResolveSwapRequest_Terminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}
	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", false, time.Now().UTC()); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", true, time.Now().UTC()); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict for resolved request, got %v", err)
	}
}

func TestSwapRequestRepository_ResolveSwapRequest_WrongResponder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}

	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-1", true, time.Now().UTC()); !errors.Is(err, persistence.ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch for requester responding, got %v", err)
	}
	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "ghost", "user-2", true, time.Now().UTC()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown request, got %v", err)
	}

	// The failed responses left the negotiation untouched.
	request, err := store.SwapRequests.GetSwapRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetSwapRequest failed: %v", err)
	}
	if request.Status != persistence.RequestPending {
		t.Fatalf("expected request still PENDING, got %s", request.Status)
	}
}

func TestSwapRequestRepository_PendingRequestForSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)

	if _, err := store.SwapRequests.PendingRequestForSlot(ctx, "slot-a"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any request, got %v", err)
	}

	if _, err := store.SwapRequests.CreateSwapRequest(ctx, newSwapRequest("req-1")); err != nil {
		t.Fatalf("CreateSwapRequest failed: %v", err)
	}

	for _, slotID := range []string{"slot-a", "slot-b"} {
		request, err := store.SwapRequests.PendingRequestForSlot(ctx, slotID)
		if err != nil {
			t.Fatalf("PendingRequestForSlot %s failed: %v", slotID, err)
		}
		if request.ID != "req-1" {
			t.Errorf("expected req-1 for %s, got %s", slotID, request.ID)
		}
	}

	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", false, time.Now().UTC()); err != nil {
		t.Fatalf("ResolveSwapRequest failed: %v", err)
	}
	if _, err := store.SwapRequests.PendingRequestForSlot(ctx, "slot-a"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after resolution, got %v", err)
	}
}

func TestSwapRequestRepository_Listings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedSwapPair(t, store)
	seedUser(t, store, "user-3", "carol@example.com", "Carol")
	seedSlot(t, store, "slot-c", "user-3", persistence.SlotSwappable)
	seedSlot(t, store, "slot-d", "user-2", persistence.SlotSwappable)

	base := time.Now().UTC().Truncate(time.Second)
	first := newSwapRequest("req-1")
	first.CreatedAt = base
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, first); err != nil {
		t.Fatalf("CreateSwapRequest req-1 failed: %v", err)
	}

	second := persistence.SwapRequest{
		ID:              "req-2",
		RequesterID:     "user-3",
		RequesterSlotID: "slot-c",
		TargetSlotID:    "slot-d",
		CreatedAt:       base.Add(time.Minute),
	}
	if _, err := store.SwapRequests.CreateSwapRequest(ctx, second); err != nil {
		t.Fatalf("CreateSwapRequest req-2 failed: %v", err)
	}

	incoming, err := store.SwapRequests.ListIncomingRequests(ctx, "user-2")
	if err != nil {
		t.Fatalf("ListIncomingRequests failed: %v", err)
	}
	if len(incoming) != 2 {
		t.Fatalf("expected 2 incoming requests, got %d", len(incoming))
	}
	// Newest first.
	if incoming[0].ID != "req-2" || incoming[1].ID != "req-1" {
		t.Fatalf("unexpected incoming order: %s, %s", incoming[0].ID, incoming[1].ID)
	}
	detail := incoming[1]
	if detail.RequesterName != "Alice" {
		t.Errorf("expected requester name Alice, got %q", detail.RequesterName)
	}
	if detail.TargetOwnerID != "user-2" || detail.TargetOwnerName != "Bob" {
		t.Errorf("unexpected target owner: %s %q", detail.TargetOwnerID, detail.TargetOwnerName)
	}
	if detail.RequesterSlot.ID != "slot-a" || detail.TargetSlot.ID != "slot-b" {
		t.Errorf("unexpected slots joined: %s, %s", detail.RequesterSlot.ID, detail.TargetSlot.ID)
	}
	if detail.RequesterSlot.Status != persistence.SlotSwapPending {
		t.Errorf("expected joined slot SWAP_PENDING, got %s", detail.RequesterSlot.Status)
	}

	outgoing, err := store.SwapRequests.ListOutgoingRequests(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListOutgoingRequests failed: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].ID != "req-1" {
		t.Fatalf("unexpected outgoing listing: %#v", outgoing)
	}

	// Resolved requests drop out of incoming but stay in outgoing.
	if _, err := store.SwapRequests.ResolveSwapRequest(ctx, "req-1", "user-2", false, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("ResolveSwapRequest failed: %v", err)
	}
	incoming, err = store.SwapRequests.ListIncomingRequests(ctx, "user-2")
	if err != nil {
		t.Fatalf("ListIncomingRequests after resolve failed: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != "req-2" {
		t.Fatalf("expected only req-2 incoming, got %#v", incoming)
	}
	outgoing, err = store.SwapRequests.ListOutgoingRequests(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListOutgoingRequests after resolve failed: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Status != persistence.RequestRejected {
		t.Fatalf("expected rejected request in outgoing, got %#v", outgoing)
	}
}
