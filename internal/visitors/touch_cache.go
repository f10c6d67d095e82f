package visitors

import (
	"sync"
	"time"
)

const defaultTouchCacheSize = 10000

// touchCache remembers recent touches. Entries older than ttl no longer suppress a
// write, so they are swept whenever the cache reaches its limit.
type touchCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	limit   int
}

func newTouchCache(ttl time.Duration, limit int) *touchCache {
	return &touchCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		limit:   limit,
	}
}

// fresh reports whether visitorID was touched less than ttl before now.
func (c *touchCache) fresh(visitorID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.entries[visitorID]
	return ok && now.Sub(last) < c.ttl
}

func (c *touchCache) record(visitorID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[visitorID]; !ok && len(c.entries) >= c.limit {
		c.sweep(now)
		if len(c.entries) >= c.limit {
			// Every entry is still fresh; dropping them only costs extra writes.
			clear(c.entries)
		}
	}
	c.entries[visitorID] = now
}

func (c *touchCache) sweep(now time.Time) {
	for visitorID, last := range c.entries {
		if now.Sub(last) >= c.ttl {
			delete(c.entries, visitorID)
		}
	}
}

func (c *touchCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
