package application

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrUnauthorized, want: "unauthorized"},
		{err: ErrNotFound, want: "not_found"},
		{err: ErrConflict, want: "conflict"},
		{err: ErrAlreadyExists, want: "already_exists"},
		{err: ErrInvalidCredentials, want: "invalid_credentials"},
		{err: ErrSessionExpired, want: "session_expired"},
		{err: ErrSessionRevoked, want: "session_revoked"},
		{err: &ValidationError{FieldErrors: map[string]string{"field": "bad"}}, want: "validation"},
		{err: errors.New("boom"), want: "unexpected"},
	}

	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
