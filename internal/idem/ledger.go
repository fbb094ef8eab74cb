// Package idem implements the idempotency guard: a keyed, TTL-bounded ledger
// of already-executed operation identifiers.
//
// Every state-mutating entry point in the planning core wraps its work in
// Run. Of N calls with the same key - same caller, another device, a network
// retry - exactly one executes; the rest observe a successful no-op.
//
// The ledger is an explicitly constructed, injectable object with its own
// lifecycle, never a package-level singleton. Callers construct one per
// process and pass it down.
package idem

import (
	"sync"
	"time"
)

// DefaultRetention is how long an executed key stays in the ledger before
// garbage collection may remove it. Long enough to absorb rapid duplicate
// clicks and multi-device races; short enough that the ledger stays small.
const DefaultRetention = 300 * time.Second

// Ledger records which idempotency keys have already executed.
//
// Thread-safety model:
//   - the check-and-claim step is a single critical section, so concurrent
//     callers sharing one Ledger cannot both claim the same key
//   - the wrapped operation runs OUTSIDE the lock; a slow operation does not
//     serialize unrelated keys
type Ledger struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRetention overrides the GC retention window.
func WithRetention(d time.Duration) Option {
	return func(l *Ledger) {
		l.retention = d
	}
}

// WithNow injects a clock. Used by tests to drive the retention window
// deterministically; production ledgers use time.Now.
func WithNow(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty ledger with the default 300s retention window.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries:   make(map[string]time.Time),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Outcome reports whether a guarded operation executed and, if so, its result.
//
// A suppressed duplicate carries Executed=false and the zero Result; from the
// caller's point of view it is indistinguishable from a successful no-op.
type Outcome[T any] struct {
	Executed bool
	Result   T
}

// Run executes fn exactly once for the given key.
//
// The first call claims the key inside a single critical section, then runs
// fn and returns {Executed: true, Result: fn()}. Every later call with the
// same key returns {Executed: false} with a nil error and never invokes fn.
//
// Failure semantics: if fn returns an error, the error propagates to the
// first caller only and the key STAYS claimed. An operation that started is
// considered spent even if it later fails - otherwise a crashed mutation
// could be silently retried into a double effect. Claims are permanent; a
// caller that has externally verified no side effect occurred must mint a
// fresh key (see GenerateKey) to retry.
func Run[T any](l *Ledger, key string, fn func() (T, error)) (Outcome[T], error) {
	if !l.claim(key) {
		return Outcome[T]{}, nil
	}

	result, err := fn()
	if err != nil {
		return Outcome[T]{Executed: true}, err
	}
	return Outcome[T]{Executed: true, Result: result}, nil
}

// claim atomically records the key if unseen. Returns true if this caller won
// the claim, false if the key was already recorded.
func (l *Ledger) claim(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.entries[key]; seen {
		return false
	}
	l.entries[key] = l.now()
	return true
}

// Seen reports whether a key has been claimed. Diagnostic only; do not use
// it to decide whether to call Run (check-then-act races).
func (l *Ledger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seen := l.entries[key]
	return seen
}

// GC removes ledger entries older than the retention window and returns the
// count removed. Entries still inside the window are never removed, no matter
// how often GC runs.
func (l *Ledger) GC() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.retention)
	removed := 0
	for key, recordedAt := range l.entries {
		if recordedAt.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Clear resets the ledger. Test/reset hook only.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]time.Time)
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
