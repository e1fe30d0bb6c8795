package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/geocoder89/assethub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func healthRouter(checks map[string]handlers.Pinger) *gin.Engine {
	h := handlers.NewHealthHandler(checks)
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	return r
}

func TestHealthHandler_Root(t *testing.T) {
	w := do(healthRouter(nil), "GET", "/", "")
	if w.Code != http.StatusOK || w.Body.String() != "Asset management system server is running" {
		t.Fatalf("unexpected root response %d %q", w.Code, w.Body.String())
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	w := do(healthRouter(map[string]handlers.Pinger{"mongo": ok, "redis": nil}), "GET", "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d body=%s", w.Code, w.Body.String())
	}

	w = do(healthRouter(map[string]handlers.Pinger{"mongo": ok, "redis": down}), "GET", "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Checks["redis"] != "unreachable" || len(body.Checks) != 1 {
		t.Fatalf("unexpected checks %v", body.Checks)
	}
}
