package client

import (
	"sync"
	"time"

	"github.com/launchwire/launchwire/internal/metrics"
)

// revalidateCache is a time-boxed response cache. Entries are reused for a
// fixed window and refreshed on the first request after expiry.
//
// Each key carries a fetch token. A completed fetch only lands if its token
// is newer than the one already applied, so a slow stale refresh can never
// overwrite the result of a later request.
type revalidateCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*cacheEntry
	issued  map[string]uint64
}

type cacheEntry struct {
	data    []byte
	expires time.Time
	applied uint64
}

func newRevalidateCache(ttl time.Duration, now func() time.Time) *revalidateCache {
	if now == nil {
		now = time.Now
	}
	return &revalidateCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*cacheEntry),
		issued:  make(map[string]uint64),
	}
}

// Get returns the cached body for key if it is still within the window.
func (c *revalidateCache) Get(key string) ([]byte, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		metrics.ObserveCacheEvent("miss")
		return nil, false
	}
	metrics.ObserveCacheEvent("hit")
	return e.data, true
}

// Issue hands out a token for a fetch of key. Later calls return larger
// tokens.
func (c *revalidateCache) Issue(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[key]++
	return c.issued[key]
}

// Store applies a fetched body under key. It reports false, and stores
// nothing, when a fetch with a newer token already landed.
func (c *revalidateCache) Store(key string, token uint64, data []byte) bool {
	if c == nil || c.ttl <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.applied >= token {
		metrics.ObserveCacheEvent("stale_discard")
		return false
	}
	c.entries[key] = &cacheEntry{
		data:    data,
		expires: c.now().Add(c.ttl),
		applied: token,
	}
	return true
}
