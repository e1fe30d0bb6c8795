package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("invalid_transition", "x"), http.StatusConflict},
		{Invalid("invalid_id", "x"), http.StatusBadRequest},
		{PayloadTooLarge("x"), http.StatusRequestEntityTooLarge},
		{UnsupportedMedia("x"), http.StatusUnsupportedMediaType},
		{RateLimited("x"), http.StatusTooManyRequests},
		{Internal("x", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.err.Kind.Status(); got != tt.want {
			t.Fatalf("%s: got %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("list users: %w", Internal("could not list users", cause))

	e, ok := As(err)
	if !ok {
		t.Fatalf("expected to find *Error in chain")
	}
	if e.Message != "could not list users" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should stay reachable")
	}
}
