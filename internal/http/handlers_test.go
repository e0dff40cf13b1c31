package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/slotswapper/internal/application"
)

type authServiceStub struct {
	result    application.AuthenticateResult
	err       error
	revoked   string
	revokeErr error
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (application.AuthenticateResult, error) {
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = token
	return nil
}

type slotServiceStub struct {
	slot     application.Slot
	slots    []application.Slot
	listings []application.MarketplaceSlot
	err      error
}

func (s *slotServiceStub) CreateSlot(ctx context.Context, params application.CreateSlotParams) (application.Slot, error) {
	if s.err != nil {
		return application.Slot{}, s.err
	}
	return s.slot, nil
}

func (s *slotServiceStub) UpdateSlotStatus(ctx context.Context, params application.UpdateSlotStatusParams) (application.Slot, error) {
	if s.err != nil {
		return application.Slot{}, s.err
	}
	return s.slot, nil
}

func (s *slotServiceStub) DeleteSlot(ctx context.Context, principal application.Principal, slotID string) error {
	return s.err
}

func (s *slotServiceStub) ListMySlots(ctx context.Context, principal application.Principal) ([]application.Slot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.slots, nil
}

func (s *slotServiceStub) ListSwappableSlots(ctx context.Context, principal application.Principal) ([]application.MarketplaceSlot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

type swapServiceStub struct {
	request application.SwapRequest
	details []application.SwapRequestDetail
	err     error

	respondParams application.RespondParams
}

func (s *swapServiceStub) RequestSwap(ctx context.Context, params application.RequestSwapParams) (application.SwapRequest, error) {
	if s.err != nil {
		return application.SwapRequest{}, s.err
	}
	return s.request, nil
}

func (s *swapServiceStub) Respond(ctx context.Context, params application.RespondParams) (application.SwapRequest, error) {
	if s.err != nil {
		return application.SwapRequest{}, s.err
	}
	s.respondParams = params
	return s.request, nil
}

func (s *swapServiceStub) ListIncoming(ctx context.Context, principal application.Principal) ([]application.SwapRequestDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.details, nil
}

func (s *swapServiceStub) ListOutgoing(ctx context.Context, principal application.Principal) ([]application.SwapRequestDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.details, nil
}

type validatorStub struct {
	principal application.Principal
	err       error
}

func (v validatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return v.principal, v.err
}

func newTestRouter(auth *authServiceStub, slots *slotServiceStub, swaps *swapServiceStub, validator SessionValidator) http.Handler {
	cfg := RouterConfig{}
	if auth != nil {
		cfg.Auth = NewAuthHandler(auth, nil)
	}
	if slots != nil {
		cfg.Slots = NewSlotHandler(slots, nil)
	}
	if swaps != nil {
		cfg.Swaps = NewSwapHandler(swaps, nil)
	}
	if validator != nil {
		cfg.SessionGuard = RequireSession(validator, nil)
	}
	return NewRouter(cfg)
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer session-token")
	return req
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	expiresAt := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	t.Run("signup issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{result: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Email: "alice@example.com", DisplayName: "Alice"},
			Session: application.Session{Token: "token-1", ExpiresAt: expiresAt},
		}}
		router := newTestRouter(auth, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-1" {
			t.Fatalf("expected session token header, got %q", got)
		}
		if !strings.Contains(recorder.Header().Get("Set-Cookie"), "session_token=token-1") {
			t.Fatalf("expected session cookie, got %q", recorder.Header().Get("Set-Cookie"))
		}

		var resp struct {
			Token string `json:"token"`
			User  struct {
				Name string `json:"name"`
			} `json:"user"`
		}
		decodeBody(t, recorder, &resp)
		if resp.Token != "token-1" || resp.User.Name != "Alice" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})

	t.Run("signup surfaces duplicate email as 409", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{err: application.ErrAlreadyExists}
		router := newTestRouter(auth, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})

	t.Run("login rejects bad credentials with 401", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{err: application.ErrInvalidCredentials}
		router := newTestRouter(auth, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}

		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
		}
	})

	t.Run("login rejects malformed body with 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&authServiceStub{}, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{}
		router := newTestRouter(auth, nil, nil, nil)

		req := authedRequest(http.MethodPost, "/logout", "")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if auth.revoked != "session-token" {
			t.Fatalf("expected revocation of session-token, got %q", auth.revoked)
		}
		if !strings.Contains(recorder.Header().Get("Set-Cookie"), "Max-Age=0") {
			t.Fatalf("expected cleared cookie, got %q", recorder.Header().Get("Set-Cookie"))
		}
	})

	t.Run("logout without a token returns 401", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&authServiceStub{}, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})
}

func TestSlotHandlers(t *testing.T) {
	t.Parallel()

	validator := validatorStub{principal: application.Principal{UserID: "user-1"}}

	t.Run("create returns 201 with the slot payload", func(t *testing.T) {
		t.Parallel()

		slots := &slotServiceStub{slot: application.Slot{
			ID:      "slot-1",
			OwnerID: "user-1",
			Title:   "Morning shift",
			Status:  application.SlotBusy,
		}}
		router := newTestRouter(nil, slots, nil, validator)

		req := authedRequest(http.MethodPost, "/slots", `{"title":"Morning shift","start":"2025-06-02T10:00:00Z","end":"2025-06-02T11:00:00Z"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var resp slotDTO
		decodeBody(t, recorder, &resp)
		if resp.ID != "slot-1" || resp.Status != "BUSY" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})

	t.Run("create returns localized validation errors", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{"title": "title is required"}}
		slots := &slotServiceStub{err: vErr}
		router := newTestRouter(nil, slots, nil, validator)

		req := authedRequest(http.MethodPost, "/slots", `{"start":"2025-06-02T10:00:00Z","end":"2025-06-02T11:00:00Z"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}

		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.Errors["title"] != "タイトルは必須です。" {
			t.Fatalf("expected localized title error, got %v", resp.Errors)
		}
	})

	t.Run("status update conflict maps to 409", func(t *testing.T) {
		t.Parallel()

		slots := &slotServiceStub{err: application.ErrConflict}
		router := newTestRouter(nil, slots, nil, validator)

		req := authedRequest(http.MethodPatch, "/slots/slot-1", `{"status":"BUSY"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}

		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "STATE_CONFLICT" {
			t.Fatalf("expected STATE_CONFLICT, got %q", resp.ErrorCode)
		}
	})

	t.Run("delete of a foreign slot maps to 403", func(t *testing.T) {
		t.Parallel()

		slots := &slotServiceStub{err: application.ErrUnauthorized}
		router := newTestRouter(nil, slots, nil, validator)

		req := authedRequest(http.MethodDelete, "/slots/slot-9", "")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})

	t.Run("list requires a session", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, &slotServiceStub{}, nil, validator)

		req := httptest.NewRequest(http.MethodGet, "/slots", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("marketplace returns listings with owner names", func(t *testing.T) {
		t.Parallel()

		slots := &slotServiceStub{listings: []application.MarketplaceSlot{
			{Slot: application.Slot{ID: "slot-3", OwnerID: "user-2", Status: application.SlotSwappable}, OwnerName: "Bob"},
		}}
		router := newTestRouter(nil, slots, &swapServiceStub{}, validator)

		req := authedRequest(http.MethodGet, "/swaps/marketplace", "")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var resp struct {
			Slots []struct {
				ID        string `json:"id"`
				OwnerName string `json:"owner_name"`
			} `json:"slots"`
		}
		decodeBody(t, recorder, &resp)
		if len(resp.Slots) != 1 || resp.Slots[0].OwnerName != "Bob" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})

	t.Run("method not allowed on collection", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, &slotServiceStub{}, nil, validator)

		req := authedRequest(http.MethodPut, "/slots", "")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
	})
}

func TestSwapHandlers(t *testing.T) {
	t.Parallel()

	validator := validatorStub{principal: application.Principal{UserID: "bob"}}

	t.Run("create request returns 201 with PENDING status", func(t *testing.T) {
		t.Parallel()

		swaps := &swapServiceStub{request: application.SwapRequest{
			ID:     "req-1",
			Status: application.RequestPending,
		}}
		router := newTestRouter(nil, nil, swaps, validator)

		req := authedRequest(http.MethodPost, "/swaps/requests", `{"my_slot_id":"slot-a","their_slot_id":"slot-b"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var resp swapRequestDTO
		decodeBody(t, recorder, &resp)
		if resp.Status != "PENDING" {
			t.Fatalf("expected PENDING, got %q", resp.Status)
		}
	})

	t.Run("claimed slot maps to 409", func(t *testing.T) {
		t.Parallel()

		swaps := &swapServiceStub{err: application.ErrConflict}
		router := newTestRouter(nil, nil, swaps, validator)

		req := authedRequest(http.MethodPost, "/swaps/requests", `{"my_slot_id":"slot-a","their_slot_id":"slot-b"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})

	t.Run("respond forwards the decision and request id", func(t *testing.T) {
		t.Parallel()

		swaps := &swapServiceStub{request: application.SwapRequest{
			ID:     "req-7",
			Status: application.RequestAccepted,
		}}
		router := newTestRouter(nil, nil, swaps, validator)

		req := authedRequest(http.MethodPost, "/swaps/requests/req-7/response", `{"accept":true}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if swaps.respondParams.RequestID != "req-7" || !swaps.respondParams.Accept {
			t.Fatalf("unexpected params: %+v", swaps.respondParams)
		}
	})

	t.Run("respond without an accept field returns 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, nil, &swapServiceStub{}, validator)

		req := authedRequest(http.MethodPost, "/swaps/requests/req-7/response", `{}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("responding to someone else's request maps to 403", func(t *testing.T) {
		t.Parallel()

		swaps := &swapServiceStub{err: application.ErrUnauthorized}
		router := newTestRouter(nil, nil, swaps, validator)

		req := authedRequest(http.MethodPost, "/swaps/requests/req-7/response", `{"accept":false}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})

	t.Run("incoming list returns request details", func(t *testing.T) {
		t.Parallel()

		swaps := &swapServiceStub{details: []application.SwapRequestDetail{
			{
				SwapRequest:   application.SwapRequest{ID: "req-1", Status: application.RequestPending},
				RequesterName: "Alice",
			},
		}}
		router := newTestRouter(nil, nil, swaps, validator)

		req := authedRequest(http.MethodGet, "/swaps/requests/incoming", "")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var resp struct {
			Requests []struct {
				ID            string `json:"id"`
				RequesterName string `json:"requester_name"`
			} `json:"requests"`
		}
		decodeBody(t, recorder, &resp)
		if len(resp.Requests) != 1 || resp.Requests[0].RequesterName != "Alice" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, nil, nil, validatorStub{err: application.ErrUnauthorized})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 without authentication, got %d", recorder.Code)
	}
}
