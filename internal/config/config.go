package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	Store string

	MongoURI string
	MongoDB  string

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieMaxAge time.Duration
	CookieSecure        bool

	CORSOrigins []string

	StripeSecretKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint    string
	OTELSampleRatio float64

	AdminEmail string
	AdminName  string

	RateLimitPerMinute int
	MaxBodyBytes       int64
	WorkerConcurrency  int
	WorkerHealthPort   int
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

func Load() Config {
	// a missing .env is fine, real deployments inject env directly
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	secret := os.Getenv("ACCESS_TOKEN_SECRET")
	if secret == "" && env == "dev" {
		secret = "dev-secret"
	}

	return Config{
		Env:   env,
		Port:  getEnvInt("PORT", 5000),
		Store: strings.ToLower(getEnv("STORE", StoreMongo)),

		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGODB_DB", "assetManagement"),

		SessionSecret:       secret,
		SessionTTL:          getEnvDuration("SESSION_TTL", time.Hour),
		SessionCookieMaxAge: getEnvDuration("SESSION_COOKIE_MAX_AGE", 24*time.Hour),
		CookieSecure:        getEnvBool("COOKIE_SECURE", true),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),

		AdminEmail: strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminName:  getEnv("ADMIN_NAME", "Administrator"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 5001),
	}
}

// Validate reports configuration that would make the server unusable.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.Store != StoreMongo && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store)
	}
	return nil
}

func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
