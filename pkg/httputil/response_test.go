package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lycosidae/gateway/pkg/apperrors"
)

func TestWriteAppError_Taxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unauthenticated", apperrors.Unauthenticated("user not authenticated"), 401, "user not authenticated"},
		{"forbidden carries reason", apperrors.Forbidden("you must join this competition first"), 403, "you must join this competition first"},
		{"not found", apperrors.NotFound("team not found"), 404, "team not found"},
		{"conflict", apperrors.Conflict("email already registered"), 409, "email already registered"},
		{"invalid", apperrors.Invalid("invalid invite code"), 400, "invalid invite code"},
		{"gateway unavailable", apperrors.GatewayUnavailable("get_team", errors.New("dial tcp")), 503, "interpreter unavailable"},
		{"unclassified", errors.New("secret details"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error message = %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteCreated(rec, map[string]string{"id": "u-1"}); err != nil {
		t.Fatalf("WriteCreated() error = %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestWriteTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTooManyRequests(rec, "too many login attempts", 42*time.Second)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Errorf("Retry-After = %q, want %q", got, "42")
	}

	var body struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error != "too many login attempts" {
		t.Errorf("error = %q", body.Error)
	}
	if body.RetryAfter != 42 {
		t.Errorf("retry_after = %d, want 42", body.RetryAfter)
	}
}

func TestParseJSONOrError(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/auth/register", nil)
	r.Body = http.NoBody

	var dest struct{}
	if ParseJSONOrError(rec, r, &dest) {
		t.Error("empty body should fail to parse")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
