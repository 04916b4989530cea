// Package memory stores per-conversation chat history. Redis-backed when a
// URL is configured, with an in-RAM fallback so the bot keeps working through
// Redis outages — persistence here is best-effort by design.
package memory

import (
	"context"
	"log/slog"
)

// Turn is one stored history message.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Store persists conversation history per chat id.
type Store interface {
	History(ctx context.Context, chatID string) ([]Turn, error)
	Save(ctx context.Context, chatID string, turns []Turn) error
	Close() error
}

// New returns a Redis store when redisURL is set and reachable, otherwise the
// in-RAM fallback. A configured-but-unreachable Redis degrades to RAM with a
// logged warning rather than failing startup.
func New(ctx context.Context, redisURL string) Store {
	if redisURL == "" {
		slog.Info("redis not configured, using in-RAM conversation memory")
		return NewRAMStore()
	}

	store, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		slog.Warn("redis unavailable, falling back to in-RAM memory", "error", err)
		return NewRAMStore()
	}

	slog.Info("redis conversation memory connected")
	return store
}

func memKey(chatID string) string {
	return "mem:" + chatID
}
