// Package batch coalesces bursts of near-simultaneous inbound messages from
// the same conversation into one logical turn. WhatsApp users often type one
// thought across several rapid messages; handing each straight to the LLM
// wastes calls and produces fragmented replies. The scheduler absorbs
// fragments per conversation key, waits for an idle window, and triggers
// exactly one downstream handler call per turn.
package batch

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultIdleWindow is the quiet period required after the last fragment
	// before a turn is considered complete.
	DefaultIdleWindow = 20 * time.Second

	// DefaultMaxBatch caps fragments per turn; hitting it flushes immediately.
	DefaultMaxBatch = 10
)

// Handler consumes a combined turn. It is dispatched on its own goroutine;
// the scheduler never waits for it and never observes its errors.
type Handler func(turn string)

// TurnStatus is a read-only snapshot of a pending turn.
type TurnStatus struct {
	Fragments  []string  `json:"fragments"`
	LastUpdate time.Time `json:"last_update"`
}

// Config holds the static scheduler knobs. Zero values take the defaults.
type Config struct {
	IdleWindow time.Duration
	MaxBatch   int
}

// pendingTurn is the per-key accumulation state. A pendingTurn exists iff at
// least one fragment is unflushed; it is removed from the registry the moment
// the turn is handed off, before the handler runs.
type pendingTurn struct {
	fragments  []string
	lastUpdate time.Time
	handler    Handler
	timer      *time.Timer
	// generation invalidates superseded timers: every rearm and every flush
	// bumps it, and a fired timer whose captured generation no longer matches
	// is a no-op. This is what guarantees at most one flush per turn even
	// when a timer fires concurrently with a cancelling Submit.
	generation uint64
}

// Scheduler owns the conversation-key → pendingTurn registry. All methods are
// safe for concurrent use; entries for different keys are independent.
type Scheduler struct {
	mu         sync.Mutex
	idleWindow time.Duration
	maxBatch   int
	pending    map[string]*pendingTurn
	stopped    bool
}

// NewScheduler creates a Scheduler from config.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = DefaultIdleWindow
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	return &Scheduler{
		idleWindow: cfg.IdleWindow,
		maxBatch:   cfg.MaxBatch,
		pending:    make(map[string]*pendingTurn),
	}
}

// IdleWindow returns the configured quiet period before a turn flushes.
func (s *Scheduler) IdleWindow() time.Duration { return s.idleWindow }

// MaxBatch returns the configured fragment cap per turn.
func (s *Scheduler) MaxBatch() int { return s.maxBatch }

// Submit absorbs one message fragment for a conversation key.
//
// The first fragment of a turn creates the accumulator, captures the handler
// for the whole turn, and arms the idle timer. Subsequent fragments append,
// refresh the timestamp, and rearm the timer — unless the batch cap is hit,
// in which case the turn flushes synchronously and Submit returns false.
// A true return means "absorbed, the turn is still accumulating".
//
// After Stop, Submit stores nothing and returns false: a fragment accepted
// into a registry whose timers can no longer arm would never flush.
//
// Empty keys or fragments are the caller's contract to filter; Submit does
// not validate them.
func (s *Scheduler) Submit(key, fragment string, h Handler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	t, ok := s.pending[key]
	if !ok {
		t = &pendingTurn{handler: h}
		t.fragments = append(t.fragments, fragment)
		t.lastUpdate = time.Now()
		s.pending[key] = t
		s.armLocked(key, t)
		return true
	}

	t.fragments = append(t.fragments, fragment)
	t.lastUpdate = time.Now()

	if len(t.fragments) >= s.maxBatch {
		slog.Debug("batch cap reached, flushing", "key", key, "fragments", len(t.fragments))
		s.flushLocked(key, t)
		return false
	}

	s.armLocked(key, t)
	return true
}

// ForceFlush flushes the pending turn for key immediately, if any.
// Returns false (with no side effects) when nothing is pending.
func (s *Scheduler) ForceFlush(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[key]
	if !ok {
		return false
	}
	s.flushLocked(key, t)
	return true
}

// Status returns a snapshot of the pending turn for key, or ok=false when the
// key has no pending turn. The snapshot copies the fragment list; it never
// mutates scheduler state.
func (s *Scheduler) Status(key string) (TurnStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[key]
	if !ok {
		return TurnStatus{}, false
	}
	frags := make([]string, len(t.fragments))
	copy(frags, t.fragments)
	return TurnStatus{Fragments: frags, LastUpdate: t.lastUpdate}, true
}

// Snapshot returns the status of every pending turn, keyed by conversation.
func (s *Scheduler) Snapshot() map[string]TurnStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]TurnStatus, len(s.pending))
	for key, t := range s.pending {
		frags := make([]string, len(t.fragments))
		copy(frags, t.fragments)
		out[key] = TurnStatus{Fragments: frags, LastUpdate: t.lastUpdate}
	}
	return out
}

// Stop cancels all armed timers without flushing. Pending fragments are
// discarded; the scheduler accepts no further submissions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.pending {
		t.generation++
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		delete(s.pending, key)
	}
	s.stopped = true
}

// armLocked arms (or rearms) the idle timer for a turn. Bumping the
// generation first makes any previously armed timer a guaranteed no-op,
// regardless of whether Stop caught it in time. Caller holds the lock.
func (s *Scheduler) armLocked(key string, t *pendingTurn) {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.generation++
	gen := t.generation
	t.timer = time.AfterFunc(s.idleWindow, func() {
		s.onIdleTimer(key, t, gen)
	})
}

// onIdleTimer runs when an idle window elapses. The turn may have been
// flushed, superseded, or replaced by a newer turn for the same key while
// this fire was in flight — in all of those cases the generation or identity
// check fails and the fire is a no-op.
func (s *Scheduler) onIdleTimer(key string, t *pendingTurn, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.pending[key]
	if !ok || live != t || t.generation != gen {
		return
	}
	s.flushLocked(key, t)
}

// flushLocked finalizes a turn: the key is removed from the registry before
// the handler is dispatched, so a new turn for the same key can begin while
// the handler is still running. The handler runs detached; the scheduler
// keeps no reference to it. Caller holds the lock.
func (s *Scheduler) flushLocked(key string, t *pendingTurn) {
	delete(s.pending, key)
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	turn := Combine(t.fragments)
	slog.Debug("flushing turn", "key", key, "fragments", len(t.fragments))

	go t.handler(turn)
}
