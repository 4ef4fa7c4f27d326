package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInvalid, http.StatusBadRequest},
		{KindGatewayUnavailable, http.StatusServiceUnavailable},
		{KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := Forbidden("access denied: admin privileges required")
	if KindOf(err) != KindForbidden {
		t.Errorf("KindOf() = %v, want KindForbidden", KindOf(err))
	}

	// Kind survives wrapping.
	wrapped := fmt.Errorf("handling request: %w", err)
	if KindOf(wrapped) != KindForbidden {
		t.Errorf("KindOf(wrapped) = %v, want KindForbidden", KindOf(wrapped))
	}

	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should classify as KindUnknown")
	}
}

func TestMessageOf(t *testing.T) {
	err := GatewayUnavailable("get_user_by_id", errors.New("connection refused"))
	if got := MessageOf(err); got != "interpreter unavailable" {
		t.Errorf("MessageOf() = %q, want %q", got, "interpreter unavailable")
	}

	// The underlying cause stays out of the caller-safe message but remains
	// in Error() for logs.
	if got := err.Error(); got != "get_user_by_id: interpreter unavailable: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	if got := MessageOf(errors.New("db exploded")); got != "internal server error" {
		t.Errorf("MessageOf(plain) = %q, want generic message", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(KindGatewayUnavailable, "get_scoreboard", "interpreter unavailable", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}
