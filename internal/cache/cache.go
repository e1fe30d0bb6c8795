package cache

import (
	"sync"
	"time"
)

const defaultMaxEntries = 1024

// Cache is a small TTL cache for read-mostly list pages. Writers invalidate
// by clearing it, so entries never need to be updated in place.
type Cache[V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	m          map[string]entry[V]
	now        func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		m:          make(map[string]entry[V]),
		now:        time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.exp) {
		delete(c.m, key)
		var zero V
		return zero, false
	}
	return e.val, true
}

// Set stores val. When full it first drops expired entries, and if that
// frees nothing the whole cache is reset.
func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.m) >= c.maxEntries {
		for k, e := range c.m {
			if now.After(e.exp) {
				delete(c.m, k)
			}
		}
		if len(c.m) >= c.maxEntries {
			c.m = make(map[string]entry[V])
		}
	}

	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry[V])
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
