package redisclient

import (
	"context"
	"time"

	"github.com/geocoder89/assethub/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client owns the one Redis connection pool a process shares between the
// job queue and the rate limiter.
type Client struct {
	rdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int

	// ReadTimeout must outlast the longest BRPOP a worker issues.
	ReadTimeout time.Duration
}

func FromAppConfig(cfg config.Config) Config {
	return Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func New(cfg Config) *Client {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 2 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  readTimeout,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{rdb: rdb}
}

// Connect builds the client and fails fast when Redis does not answer.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c := New(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw exposes the pool to the queue and the limiter store.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
