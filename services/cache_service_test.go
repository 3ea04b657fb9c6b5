package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestCache returns a cache with a controllable clock.
func newTestCache(ttl time.Duration) (*Cache[string], *time.Time) {
	cache := NewCache[string]("test", ttl, time.Minute)
	clock := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	return cache, &clock
}

func TestCachePutAndGet(t *testing.T) {
	cache, _ := newTestCache(5 * time.Hour)

	cache.Put("mainboard_ipos", "snapshot-a")

	value, hit := cache.Get("mainboard_ipos")
	assert.True(t, hit)
	assert.Equal(t, "snapshot-a", value)

	_, hit = cache.Get("sme_ipos")
	assert.False(t, hit)
}

func TestCachePutReplacesAndRestampsEntry(t *testing.T) {
	cache, clock := newTestCache(time.Hour)

	cache.Put("key", "old")
	*clock = clock.Add(50 * time.Minute)
	cache.Put("key", "new")

	// The replacement got a fresh timestamp, so it survives past the point
	// where the original would have expired.
	*clock = clock.Add(30 * time.Minute)
	value, hit := cache.Get("key")
	assert.True(t, hit)
	assert.Equal(t, "new", value)
}

func TestCacheExpiryOnGet(t *testing.T) {
	cache, clock := newTestCache(30 * time.Minute)

	cache.Put("gmp", "₹45")

	*clock = clock.Add(29 * time.Minute)
	_, hit := cache.Get("gmp")
	assert.True(t, hit)

	// Age equal to the TTL is already expired.
	*clock = clock.Add(time.Minute)
	_, hit = cache.Get("gmp")
	assert.False(t, hit)

	// The expired entry was evicted, not just hidden.
	assert.Equal(t, 0, cache.Len())
}

func TestCacheSweepExpired(t *testing.T) {
	cache, clock := newTestCache(time.Hour)

	cache.Put("old", "a")
	*clock = clock.Add(45 * time.Minute)
	cache.Put("fresh", "b")

	*clock = clock.Add(20 * time.Minute)
	removed := cache.SweepExpired()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, cache.Len())

	_, hit := cache.Get("fresh")
	assert.True(t, hit)
	_, hit = cache.Get("old")
	assert.False(t, hit)
}

func TestCacheReplaceKeepsOriginalTimestamp(t *testing.T) {
	cache, clock := newTestCache(time.Hour)

	cache.Put("key", "old")
	*clock = clock.Add(50 * time.Minute)

	assert.True(t, cache.Replace("key", "new"))

	value, hit := cache.Get("key")
	assert.True(t, hit)
	assert.Equal(t, "new", value)

	// The replacement inherited the original timestamp, so the entry
	// expires on the original schedule.
	*clock = clock.Add(10 * time.Minute)
	_, hit = cache.Get("key")
	assert.False(t, hit)
}

func TestCacheReplaceDoesNotCreateEntries(t *testing.T) {
	cache, _ := newTestCache(time.Hour)

	assert.False(t, cache.Replace("missing", "value"))
	assert.Equal(t, 0, cache.Len())
}

func TestCacheDeleteAndClear(t *testing.T) {
	cache, _ := newTestCache(time.Hour)

	cache.Put("a", "1")
	cache.Put("b", "2")

	cache.Delete("a")
	_, hit := cache.Get("a")
	assert.False(t, hit)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestCacheKeys(t *testing.T) {
	cache, _ := newTestCache(time.Hour)

	cache.Put("a", "1")
	cache.Put("b", "2")

	keys := cache.Keys()
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestCacheStartStopLifecycle(t *testing.T) {
	cache := NewCache[string]("lifecycle", time.Hour, 10*time.Millisecond)

	cache.Start()
	cache.Start() // second Start is a no-op

	cache.Put("key", "value")
	time.Sleep(30 * time.Millisecond)

	// Fresh entries survive the background sweep.
	_, hit := cache.Get("key")
	assert.True(t, hit)

	cache.Stop()
	cache.Stop() // Stop is idempotent
}
