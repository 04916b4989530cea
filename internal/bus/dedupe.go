package bus

import (
	"sync"
	"time"
)

// DedupeCache remembers recently seen message keys so webhook retries and
// double-taps do not trigger duplicate agent runs. Entries expire after the
// TTL; the map is hard-capped to bound memory.
type DedupeCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	seen    map[string]time.Time
}

// NewDedupeCache creates a cache with the given TTL and max entry count.
func NewDedupeCache(ttl time.Duration, maxSize int) *DedupeCache {
	return &DedupeCache{
		ttl:     ttl,
		maxSize: maxSize,
		seen:    make(map[string]time.Time),
	}
}

// IsDuplicate reports whether the key was seen within the TTL, and records it.
func (c *DedupeCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if ts, ok := c.seen[key]; ok && now.Sub(ts) < c.ttl {
		return true
	}

	if len(c.seen) >= c.maxSize {
		c.prune(now)
	}

	c.seen[key] = now
	return false
}

// Len returns the current number of tracked keys.
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// prune removes expired entries; if still at cap, evicts arbitrary entries
// until there is room. Caller holds the lock.
func (c *DedupeCache) prune(now time.Time) {
	for k, ts := range c.seen {
		if now.Sub(ts) >= c.ttl {
			delete(c.seen, k)
		}
	}
	for len(c.seen) >= c.maxSize {
		for k := range c.seen {
			delete(c.seen, k)
			break
		}
	}
}
