package cache

import (
	"sync"
	"time"
)

// Cache is an in-memory TTL cache. Expired entries are dropped lazily on
// read and in bulk on Set, so there is no background sweeper goroutine to
// manage.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *Cache[K, V] {
	c := New[K, V](ttl)
	c.now = now
	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// recheck under write lock, another Set may have refreshed it
		if cur, stillThere := c.entries[key]; stillThere && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		var zero V
		return zero, false
	}

	return e.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
