package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "STORE", "SESSION_TTL", "SESSION_COOKIE_MAX_AGE", "CORS_ORIGINS", "ACCESS_TOKEN_SECRET", "COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected 1h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SessionCookieMaxAge != 24*time.Hour {
		t.Fatalf("expected 24h cookie max age, got %s", cfg.SessionCookieMaxAge)
	}
	if !cfg.CookieSecure {
		t.Fatalf("cookie should be secure by default")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.SessionSecret != "dev-secret" {
		t.Fatalf("dev env should fall back to dev secret")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("STORE", "Memory")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Fatalf("got port %d", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("got ttl %s", cfg.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("store should be normalised, got %q", cfg.Store)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("prod without a secret must not validate")
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	if got := getEnvInt("REDIS_DB", 3); got != 3 {
		t.Fatalf("expected fallback 3, got %d", got)
	}
}
