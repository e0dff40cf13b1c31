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

type swapService interface {
	RequestSwap(ctx context.Context, params application.RequestSwapParams) (application.SwapRequest, error)
	Respond(ctx context.Context, params application.RespondParams) (application.SwapRequest, error)
	ListIncoming(ctx context.Context, principal application.Principal) ([]application.SwapRequestDetail, error)
	ListOutgoing(ctx context.Context, principal application.Principal) ([]application.SwapRequestDetail, error)
}

type SwapHandler struct {
	service   swapService
	responder responder
}

func NewSwapHandler(service swapService, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{service: service, responder: newResponder(logger)}
}

func (h *SwapHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req swapRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	request, err := h.service.RequestSwap(r.Context(), application.RequestSwapParams{
		Principal:   principal,
		MySlotID:    strings.TrimSpace(req.MySlotID),
		TheirSlotID: strings.TrimSpace(req.TheirSlotID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSwapRequestDTO(request))
}

func (h *SwapHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := SwapRequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req swapResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.Accept == nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	request, err := h.service.Respond(r.Context(), application.RespondParams{
		Principal: principal,
		RequestID: requestID,
		Accept:    *req.Accept,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSwapRequestDTO(request))
}

func (h *SwapHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	details, err := h.service.ListIncoming(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSwapRequestsResponse{Requests: toSwapRequestDetailDTOs(details)})
}

func (h *SwapHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	details, err := h.service.ListOutgoing(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSwapRequestsResponse{Requests: toSwapRequestDetailDTOs(details)})
}

type swapRequestRequest struct {
	MySlotID    string `json:"my_slot_id"`
	TheirSlotID string `json:"their_slot_id"`
}

type swapResponseRequest struct {
	Accept *bool `json:"accept"`
}

type listSwapRequestsResponse struct {
	Requests []swapRequestDetailDTO `json:"requests"`
}

type swapRequestDTO struct {
	ID              string `json:"id"`
	RequesterID     string `json:"requester_id"`
	RequesterSlotID string `json:"requester_slot_id"`
	TargetSlotID    string `json:"target_slot_id"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type swapRequestDetailDTO struct {
	swapRequestDTO
	RequesterName   string  `json:"requester_name"`
	TargetOwnerID   string  `json:"target_owner_id"`
	TargetOwnerName string  `json:"target_owner_name"`
	RequesterSlot   slotDTO `json:"requester_slot"`
	TargetSlot      slotDTO `json:"target_slot"`
}

func toSwapRequestDTO(request application.SwapRequest) swapRequestDTO {
	return swapRequestDTO{
		ID:              request.ID,
		RequesterID:     request.RequesterID,
		RequesterSlotID: request.RequesterSlotID,
		TargetSlotID:    request.TargetSlotID,
		Status:          string(request.Status),
		CreatedAt:       request.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       request.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSwapRequestDetailDTOs(details []application.SwapRequestDetail) []swapRequestDetailDTO {
	if len(details) == 0 {
		return nil
	}
	out := make([]swapRequestDetailDTO, 0, len(details))
	for _, detail := range details {
		out = append(out, swapRequestDetailDTO{
			swapRequestDTO:  toSwapRequestDTO(detail.SwapRequest),
			RequesterName:   detail.RequesterName,
			TargetOwnerID:   detail.TargetOwnerID,
			TargetOwnerName: detail.TargetOwnerName,
			RequesterSlot:   toSlotDTO(detail.RequesterSlot),
			TargetSlot:      toSlotDTO(detail.TargetSlot),
		})
	}
	return out
}
