package http

import (
	"context"

	"github.com/example/slotswapper/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	slotIDContextKey    contextKey = "slot_id"
	requestIDContextKey contextKey = "swap_request_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithSlotID injects the slot identifier resolved from the request path.
func ContextWithSlotID(ctx context.Context, slotID string) context.Context {
	return context.WithValue(ctx, slotIDContextKey, slotID)
}

// SlotIDFromContext extracts a slot identifier previously associated with the context.
func SlotIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(slotIDContextKey).(string)
	return id, ok
}

// ContextWithSwapRequestID injects the swap request identifier resolved from the request path.
func ContextWithSwapRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// SwapRequestIDFromContext extracts a swap request identifier previously associated with the context.
func SwapRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
