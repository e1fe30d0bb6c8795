package middlewares

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LimitStore counts hits per key in fixed windows.
type LimitStore interface {
	// Hit records one request for key and returns the count so far in the
	// current window and when that window ends.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

type RateLimiter struct {
	store     LimitStore
	limit     int
	window    time.Duration
	onLimited func(route string)
}

func NewRateLimiter(store LimitStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// OnLimited registers a hook (metrics) called for every rejected request.
func (rl *RateLimiter) OnLimited(fn func(route string)) *RateLimiter {
	rl.onLimited = fn
	return rl
}

// RateLimiterMiddleware enforces the limit for a derived key. A failing
// store lets the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = "ip:" + clientIP(c)
		}

		count, reset, err := rl.store.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter store failed", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}

			if rl.onLimited != nil {
				rl.onLimited(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWith(c, apperr.RateLimited("Too many requests. Please try again shortly."))
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// For authenticated endpoints: rate limit by email if available
func KeyByUserOrIP(c *gin.Context) string {
	if email, ok := EmailFromContext(c); ok {
		return "user:" + email
	}
	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryLimitStore keeps windows in process; fine for a single instance.
type MemoryLimitStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryLimitStore) Hit(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]
	if !ok || now.After(b.windowEnd) {
		// drop expired buckets opportunistically so the map does not grow forever
		if len(s.clients) > 10_000 {
			for k, old := range s.clients {
				if now.After(old.windowEnd) {
					delete(s.clients, k)
				}
			}
		}

		b = &clientBucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++
	return b.count, b.windowEnd, nil
}

// RedisLimitStore shares windows across API instances.
type RedisLimitStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisLimitStore(rdb redis.Cmdable) *RedisLimitStore {
	return &RedisLimitStore{rdb: rdb, prefix: "assethub:rl:"}
}

func (s *RedisLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := s.prefix + key

	count, err := s.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return 1, time.Now().Add(window), nil
	}

	ttl, err := s.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	// a key without expiry means the first hit died before PEXPIRE
	if ttl < 0 {
		if err := s.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
