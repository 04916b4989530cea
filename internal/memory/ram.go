package memory

import (
	"context"
	"sync"
)

// RAMStore is the process-local fallback. History is lost on restart, which
// matches the original deployment's degraded mode.
type RAMStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewRAMStore creates an empty in-memory store.
func NewRAMStore() *RAMStore {
	return &RAMStore{turns: make(map[string][]Turn)}
}

// History returns a copy of the stored turns for a chat.
func (s *RAMStore) History(_ context.Context, chatID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[memKey(chatID)]
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// Save replaces the stored turns for a chat.
func (s *RAMStore) Save(_ context.Context, chatID string, turns []Turn) error {
	cp := make([]Turn, len(turns))
	copy(cp, turns)

	s.mu.Lock()
	s.turns[memKey(chatID)] = cp
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the RAM store.
func (s *RAMStore) Close() error { return nil }
