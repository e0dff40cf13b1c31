package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/slotswapper/internal/application"
	"github.com/example/slotswapper/internal/config"
	httptransport "github.com/example/slotswapper/internal/http"
	"github.com/example/slotswapper/internal/persistence"
	"github.com/example/slotswapper/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local development keeps its settings in a .env file; a missing file is
	// not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.SQLiteDSN, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := newTokenGenerator(cfg.SessionSecret)
	now := time.Now

	slotStore := newSlotStoreAdapter(store.Slots)
	swapStore := newSwapStoreAdapter(store.SwapRequests)
	userStore := newUserStoreAdapter(store.Users)
	sessionStore := newSessionStoreAdapter(store.Sessions)

	slotService := application.NewSlotServiceWithLogger(slotStore, idGenerator, now, logger)
	swapService := application.NewSwapServiceWithLogger(swapStore, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userStore, sessionStore, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Slots:        httptransport.NewSlotHandler(slotService, logger),
		Swaps:        httptransport.NewSwapHandler(swapService, logger),
		SessionGuard: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("slotswapper API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newTokenGenerator derives opaque session tokens by keying random material
// with the configured session secret, so tokens from different deployments
// never collide even with a weak entropy source.
func newTokenGenerator(secret string) func() string {
	return func() string {
		buf := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			buf = []byte(fmt.Sprintf("fallback-%d", time.Now().UnixNano()))
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(buf)
		return hex.EncodeToString(mac.Sum(nil))
	}
}

type slotStoreAdapter struct {
	repo persistence.SlotRepository
}

func newSlotStoreAdapter(repo persistence.SlotRepository) *slotStoreAdapter {
	return &slotStoreAdapter{repo: repo}
}

func (a *slotStoreAdapter) CreateSlot(ctx context.Context, slot application.Slot) (application.Slot, error) {
	if err := a.repo.CreateSlot(ctx, toPersistenceSlot(slot)); err != nil {
		return application.Slot{}, err
	}
	stored, err := a.repo.GetSlot(ctx, slot.ID)
	if err != nil {
		return application.Slot{}, err
	}
	return toApplicationSlot(stored), nil
}

func (a *slotStoreAdapter) GetSlot(ctx context.Context, id string) (application.Slot, error) {
	stored, err := a.repo.GetSlot(ctx, id)
	if err != nil {
		return application.Slot{}, err
	}
	return toApplicationSlot(stored), nil
}

func (a *slotStoreAdapter) UpdateSlotStatus(ctx context.Context, id, ownerID string, status application.SlotStatus, updatedAt time.Time) (application.Slot, error) {
	stored, err := a.repo.UpdateSlotStatus(ctx, id, ownerID, persistence.SlotStatus(status), updatedAt)
	if err != nil {
		return application.Slot{}, err
	}
	return toApplicationSlot(stored), nil
}

func (a *slotStoreAdapter) DeleteSlot(ctx context.Context, id, ownerID string, deletedAt time.Time) error {
	return a.repo.DeleteSlot(ctx, id, ownerID, deletedAt)
}

func (a *slotStoreAdapter) ListSlotsByOwner(ctx context.Context, ownerID string) ([]application.Slot, error) {
	models, err := a.repo.ListSlotsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	slots := make([]application.Slot, 0, len(models))
	for _, model := range models {
		slots = append(slots, toApplicationSlot(model))
	}
	return slots, nil
}

func (a *slotStoreAdapter) ListSwappableSlotsExcluding(ctx context.Context, ownerID string) ([]application.MarketplaceSlot, error) {
	models, err := a.repo.ListSwappableSlotsExcluding(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	listings := make([]application.MarketplaceSlot, 0, len(models))
	for _, model := range models {
		listings = append(listings, application.MarketplaceSlot{
			Slot:      toApplicationSlot(model.Slot),
			OwnerName: model.OwnerName,
		})
	}
	return listings, nil
}

type swapStoreAdapter struct {
	repo persistence.SwapRequestRepository
}

func newSwapStoreAdapter(repo persistence.SwapRequestRepository) *swapStoreAdapter {
	return &swapStoreAdapter{repo: repo}
}

func (a *swapStoreAdapter) CreateSwapRequest(ctx context.Context, request application.SwapRequest) (application.SwapRequest, error) {
	stored, err := a.repo.CreateSwapRequest(ctx, persistence.SwapRequest{
		ID:              request.ID,
		RequesterID:     request.RequesterID,
		RequesterSlotID: request.RequesterSlotID,
		TargetSlotID:    request.TargetSlotID,
		Status:          persistence.RequestStatus(request.Status),
		CreatedAt:       request.CreatedAt,
		UpdatedAt:       request.UpdatedAt,
	})
	if err != nil {
		return application.SwapRequest{}, err
	}
	return toApplicationSwapRequest(stored), nil
}

func (a *swapStoreAdapter) ResolveSwapRequest(ctx context.Context, id, responderID string, accept bool, resolvedAt time.Time) (application.SwapRequest, error) {
	stored, err := a.repo.ResolveSwapRequest(ctx, id, responderID, accept, resolvedAt)
	if err != nil {
		return application.SwapRequest{}, err
	}
	return toApplicationSwapRequest(stored), nil
}

func (a *swapStoreAdapter) ListIncomingRequests(ctx context.Context, ownerID string) ([]application.SwapRequestDetail, error) {
	models, err := a.repo.ListIncomingRequests(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toApplicationSwapRequestDetails(models), nil
}

func (a *swapStoreAdapter) ListOutgoingRequests(ctx context.Context, requesterID string) ([]application.SwapRequestDetail, error) {
	models, err := a.repo.ListOutgoingRequests(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return toApplicationSwapRequestDetails(models), nil
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, credentials application.UserCredentials) error {
	return a.repo.CreateUser(ctx, persistence.User{
		ID:           credentials.User.ID,
		Email:        credentials.User.Email,
		DisplayName:  credentials.User.DisplayName,
		PasswordHash: credentials.PasswordHash,
		CreatedAt:    credentials.User.CreatedAt,
		UpdatedAt:    credentials.User.UpdatedAt,
	})
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) GetUserByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationSlot(model persistence.Slot) application.Slot {
	return application.Slot{
		ID:        model.ID,
		OwnerID:   model.OwnerID,
		Title:     model.Title,
		Start:     model.Start,
		End:       model.End,
		Status:    application.SlotStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceSlot(slot application.Slot) persistence.Slot {
	return persistence.Slot{
		ID:        slot.ID,
		OwnerID:   slot.OwnerID,
		Title:     slot.Title,
		Start:     slot.Start,
		End:       slot.End,
		Status:    persistence.SlotStatus(slot.Status),
		CreatedAt: slot.CreatedAt,
		UpdatedAt: slot.UpdatedAt,
	}
}

func toApplicationSwapRequest(model persistence.SwapRequest) application.SwapRequest {
	return application.SwapRequest{
		ID:              model.ID,
		RequesterID:     model.RequesterID,
		RequesterSlotID: model.RequesterSlotID,
		TargetSlotID:    model.TargetSlotID,
		Status:          application.RequestStatus(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toApplicationSwapRequestDetails(models []persistence.SwapRequestDetail) []application.SwapRequestDetail {
	if len(models) == 0 {
		return nil
	}
	details := make([]application.SwapRequestDetail, 0, len(models))
	for _, model := range models {
		details = append(details, application.SwapRequestDetail{
			SwapRequest:      toApplicationSwapRequest(model.SwapRequest),
			RequesterName:    model.RequesterName,
			RequesterEmail:   model.RequesterEmail,
			TargetOwnerID:    model.TargetOwnerID,
			TargetOwnerName:  model.TargetOwnerName,
			TargetOwnerEmail: model.TargetOwnerEmail,
			RequesterSlot:    toApplicationSlot(model.RequesterSlot),
			TargetSlot:       toApplicationSlot(model.TargetSlot),
		})
	}
	return details
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
