// Package http provides HTTP handlers and middleware for the slot swap API.
//
// The router exposes the following endpoints:
//   - POST /signup: registers an account. Body: {"name","email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - POST /login: issues a session token for existing credentials. Body:
//     {"email","password"}. Response shape matches /signup.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and
//     clears the cookie.
//   - GET /slots, POST /slots, PATCH /slots/{id}, DELETE /slots/{id}: slot
//     ledger endpoints exchanging the `slotDTO` payload defined in
//     slot_handler.go. PATCH accepts {"status"} and only BUSY or SWAPPABLE
//     are valid targets.
//   - GET /swaps/marketplace: every SWAPPABLE slot owned by another user.
//   - POST /swaps/requests: opens a negotiation. Body:
//     {"my_slot_id","their_slot_id"}.
//   - GET /swaps/requests/incoming, GET /swaps/requests/outgoing: request
//     listings exchanging the `swapRequestDTO` payload defined in
//     swap_handler.go.
//   - POST /swaps/requests/{id}/response: resolves a pending request. Body:
//     {"accept":true|false}.
//   - GET /health: liveness probe, no authentication required.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
