// Package access gates inbound messages against the allowed-users list kept
// in the directory sheet.
package access

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/healtfolio/healtfolio/internal/directory"
)

const defaultCacheTTL = 5 * time.Minute

// UserSource yields the current allowed-user set.
type UserSource interface {
	AllowedUsers(ctx context.Context) (map[string]bool, error)
}

// Checker caches the allowed-users list with a TTL. A refresh failure serves
// the previous list — locking everyone out because the sheet hiccuped would
// be worse than a few minutes of staleness.
type Checker struct {
	src UserSource
	ttl time.Duration

	// fetchMu serializes refreshes; mu only guards the cached map. Readers
	// never wait on a Sheets round trip — a concurrent caller during a
	// refresh is answered from the previous list.
	fetchMu   sync.Mutex
	mu        sync.Mutex
	allowed   map[string]bool
	refreshed time.Time
}

// NewChecker creates a Checker. ttl <= 0 takes the 5-minute default.
func NewChecker(src UserSource, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Checker{src: src, ttl: ttl}
}

// IsAllowed reports whether a phone number may use the bot. The number is
// normalized the same way the sheet entries are.
func (c *Checker) IsAllowed(ctx context.Context, phoneNumber string) bool {
	num := directory.NormalizeNumber(phoneNumber)

	allowed, fresh := c.snapshot()
	switch {
	case allowed == nil:
		// Cold cache: nothing to answer from, fetch synchronously.
		allowed = c.refresh(ctx)
	case !fresh:
		// Stale beats blocking: answer from the old list and refresh in the
		// background. TryLock skips the kick when a refresh is already
		// running.
		if c.fetchMu.TryLock() {
			go func() {
				defer c.fetchMu.Unlock()
				refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				c.fetch(refreshCtx)
			}()
		}
	}

	ok := allowed[num]
	if !ok {
		slog.Warn("access denied", "number", num)
	}
	return ok
}

// snapshot returns the cached list and whether it is still within the TTL.
func (c *Checker) snapshot() (map[string]bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowed, c.allowed != nil && time.Since(c.refreshed) < c.ttl
}

// refresh fetches synchronously; only one fetch runs at a time and callers
// that lost the race reuse whatever the winner installed.
func (c *Checker) refresh(ctx context.Context) map[string]bool {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if allowed, fresh := c.snapshot(); fresh {
		return allowed
	}
	return c.fetch(ctx)
}

// fetch hits the source and installs the result. A failure keeps the stale
// list. Caller holds fetchMu.
func (c *Checker) fetch(ctx context.Context) map[string]bool {
	users, err := c.src.AllowedUsers(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("allowed-users refresh failed, serving cached list", "error", err)
		return c.allowed
	}
	c.allowed = users
	c.refreshed = time.Now()
	return c.allowed
}
