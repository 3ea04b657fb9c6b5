package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cacheEntry pairs a cached value with the time it was stored. Entries are
// replaced wholesale on Put, never mutated in place.
type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a time-bounded in-memory store memoizing expensive fetch results
// under string keys. A value older than the TTL is reported as a miss and
// evicted on read; a background sweep bounds memory held by abandoned keys.
//
// The cache is constructed explicitly and injected into the services that
// need it; the sweep goroutine runs only between Start and Stop so tests
// and shutdown stay deterministic. A single coarse mutex guards the map,
// which is fine at dashboard request volumes.
type Cache[V any] struct {
	name          string
	ttl           time.Duration
	sweepInterval time.Duration

	mutex   sync.Mutex
	entries map[string]cacheEntry[V]

	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewCache creates a cache whose entries expire after ttl. The background
// sweep runs every sweepInterval once Start is called.
func NewCache[V any](name string, ttl, sweepInterval time.Duration) *Cache[V] {
	return &Cache[V]{
		name:          name,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		entries:       make(map[string]cacheEntry[V]),
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Get returns the cached value for key. An entry whose age has reached the
// TTL is evicted and reported as a miss; it is never served stale.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		var zero V
		return zero, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}

	return entry.value, true
}

// Put stores value under key, unconditionally replacing any existing entry
// and stamping the current time.
func (c *Cache[V]) Put(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = cacheEntry[V]{value: value, storedAt: c.now()}
}

// Replace swaps the value of an existing entry while keeping its original
// timestamp, so in-place updates do not extend the entry's lifetime. A
// missing key is left missing; Replace never resurrects an evicted entry.
func (c *Cache[V]) Replace(key string, value V) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return false
	}

	c.entries[key] = cacheEntry[V]{value: value, storedAt: entry.storedAt}
	return true
}

// Delete removes a single entry.
func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]cacheEntry[V])
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

// Keys returns a snapshot of the keys currently held.
func (c *Cache[V]) Keys() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Start launches the background sweep goroutine. Calling Start more than
// once has no effect.
func (c *Cache[V]) Start() {
	c.mutex.Lock()
	if c.started {
		c.mutex.Unlock()
		return
	}
	c.started = true
	c.mutex.Unlock()

	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := c.SweepExpired()
				if removed > 0 {
					logrus.WithFields(logrus.Fields{
						"component": "Cache",
						"cache":     c.name,
						"removed":   removed,
					}).Debug("Swept expired cache entries")
				}
			case <-c.stopCh:
				return
			}
		}
	}()

	logrus.WithFields(logrus.Fields{
		"component":      "Cache",
		"cache":          c.name,
		"ttl":            c.ttl,
		"sweep_interval": c.sweepInterval,
	}).Info("Cache sweep started")
}

// Stop terminates the background sweep. Safe to call multiple times and
// before Start.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// SweepExpired removes every entry whose age has reached the TTL and
// returns the number removed. Fresh entries are untouched.
func (c *Cache[V]) SweepExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
