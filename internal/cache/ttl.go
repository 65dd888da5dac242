// Package cache provides a small generic TTL cache used for permission
// decisions and delivery de-duplication. Expiry logic lives here and nowhere
// else; callers never inspect timestamps themselves.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry pairs a cached value with its absolute expiry time. Entries support
// per-key TTLs, which the gate uses to cache "cannot verify" outcomes for a
// shorter window than definite decisions.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a size-bounded cache whose entries expire individually. Reads and
// writes are independent per key; a single mutex is sufficient because all
// operations are in-memory and fast.
type TTL[K comparable, V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[K, entry[V]]
	now func() time.Time
}

// NewTTL creates a TTL cache bounded to size entries. Least-recently-used
// entries are evicted when the bound is reached, independent of expiry.
func NewTTL[K comparable, V any](size int) (*TTL[K, V], error) {
	inner, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTL[K, V]{lru: inner, now: time.Now}, nil
}

// SetClock overrides the time source (for testing).
func (c *TTL[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *TTL[K, V]) getLocked(key K) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the given ttl.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result for the TTL it reports. A compute error is returned to the
// caller and nothing is cached.
func (c *TTL[K, V]) GetOrCompute(key K, compute func() (V, time.Duration, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v, nil
	}

	value, ttl, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
	return value, nil
}

// Len returns the number of resident entries, expired or not.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
