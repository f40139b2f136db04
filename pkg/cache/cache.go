// Package cache provides a small thread-safe TTL cache for lookup-heavy
// read paths.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a generic expiring cache. Expired entries are dropped lazily on
// Get and swept periodically by a background goroutine.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	stop    chan struct{}
}

// New creates a cache whose entries live for ttl and starts the sweep
// loop. Call Stop when the cache is no longer needed.
func New[K comparable, V any](ttl, sweepInterval time.Duration) *TTL[K, V] {
	c := &TTL[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)
	return c
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the sweep goroutine.
func (c *TTL[K, V]) Stop() {
	close(c.stop)
}

func (c *TTL[K, V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *TTL[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
