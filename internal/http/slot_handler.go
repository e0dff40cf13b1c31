package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/slotswapper/internal/application"
)

type slotService interface {
	CreateSlot(ctx context.Context, params application.CreateSlotParams) (application.Slot, error)
	UpdateSlotStatus(ctx context.Context, params application.UpdateSlotStatusParams) (application.Slot, error)
	DeleteSlot(ctx context.Context, principal application.Principal, slotID string) error
	ListMySlots(ctx context.Context, principal application.Principal) ([]application.Slot, error)
	ListSwappableSlots(ctx context.Context, principal application.Principal) ([]application.MarketplaceSlot, error)
}

type SlotHandler struct {
	service   slotService
	responder responder
}

func NewSlotHandler(service slotService, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{service: service, responder: newResponder(logger)}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	slot, err := h.service.CreateSlot(r.Context(), application.CreateSlotParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSlotDTO(slot))
}

func (h *SlotHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	slotID, ok := SlotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(slotID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlotID)
		return
	}

	var req slotStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	slot, err := h.service.UpdateSlotStatus(r.Context(), application.UpdateSlotStatusParams{
		Principal: principal,
		SlotID:    slotID,
		Status:    application.SlotStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSlotDTO(slot))
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	slotID, ok := SlotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(slotID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlotID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSlot(r.Context(), principal, slotID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	slots, err := h.service.ListMySlots(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSlotsResponse{Slots: toSlotDTOs(slots)})
}

func (h *SlotHandler) Marketplace(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	listings, err := h.service.ListSwappableSlots(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, marketplaceResponse{Slots: toMarketplaceDTOs(listings)})
}

type slotRequest struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r slotRequest) toInput() application.SlotInput {
	return application.SlotInput{
		Title: strings.TrimSpace(r.Title),
		Start: parseTime(r.Start),
		End:   parseTime(r.End),
	}
}

type slotStatusRequest struct {
	Status string `json:"status"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type listSlotsResponse struct {
	Slots []slotDTO `json:"slots"`
}

type marketplaceResponse struct {
	Slots []marketplaceSlotDTO `json:"slots"`
}

type slotDTO struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type marketplaceSlotDTO struct {
	slotDTO
	OwnerName string `json:"owner_name"`
}

func toSlotDTO(slot application.Slot) slotDTO {
	return slotDTO{
		ID:        slot.ID,
		OwnerID:   slot.OwnerID,
		Title:     slot.Title,
		Start:     slot.Start.UTC().Format(time.RFC3339Nano),
		End:       slot.End.UTC().Format(time.RFC3339Nano),
		Status:    string(slot.Status),
		CreatedAt: slot.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: slot.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSlotDTOs(slots []application.Slot) []slotDTO {
	if len(slots) == 0 {
		return nil
	}
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotDTO(slot))
	}
	return out
}

func toMarketplaceDTOs(listings []application.MarketplaceSlot) []marketplaceSlotDTO {
	if len(listings) == 0 {
		return nil
	}
	out := make([]marketplaceSlotDTO, 0, len(listings))
	for _, listing := range listings {
		out = append(out, marketplaceSlotDTO{
			slotDTO:   toSlotDTO(listing.Slot),
			OwnerName: listing.OwnerName,
		})
	}
	return out
}
