package coordinator

import (
	"sync"
	"time"
)

// CircuitBreaker is the process-wide fail-safe, generalized from
// blackholedex's strategy_api.go CircuitBreaker (whose RecordError/Reset/
// ErrorRate were left as unimplemented stubs in the teacher's own
// contract file): once the error rate (see ErrorRate) reaches Threshold,
// the breaker opens and the coordinator drops new opportunities until a
// full Window has passed since it opened, or until Reset is called. This
// is distinct from per-pool cooldown — a single pool's failures isolate
// only that pool, but a broad failure rate (e.g. the RPC node itself
// failing every pool's evaluation) trips this breaker for every pool at
// once.
type CircuitBreaker struct {
	window    time.Duration
	threshold float64 // error rate (errors / total) that trips the breaker

	mu      sync.Mutex
	errors  []time.Time
	total   int
	opened  bool
	openedAt time.Time
}

// NewCircuitBreaker builds a CircuitBreaker over window with the given
// error-rate threshold in [0, 1].
func NewCircuitBreaker(window time.Duration, threshold float64) *CircuitBreaker {
	return &CircuitBreaker{window: window, threshold: threshold}
}

// RecordError records a failed submission/evaluation outcome.
func (cb *CircuitBreaker) RecordError() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	cb.errors = append(cb.errors, now)
	cb.total++
	cb.prune(now)
	if cb.ErrorRateLocked() >= cb.threshold {
		cb.opened = true
		cb.openedAt = now
	}
}

// RecordSuccess records a successful outcome, counting against the error
// rate denominator.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.total++
	cb.prune(time.Now())
}

// Reset clears all recorded state and closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.errors = nil
	cb.total = 0
	cb.opened = false
}

// Open reports whether the breaker is currently tripped. It auto-closes
// once a full window has elapsed since it opened, giving the pipeline a
// chance to recover rather than requiring a manual reset.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.opened && time.Since(cb.openedAt) > cb.window {
		cb.opened = false
		cb.errors = nil
		cb.total = 0
	}
	return cb.opened
}

// ErrorRate returns the number of errors recorded within the window divided
// by the number of all outcomes (errors and successes) recorded since the
// last Reset or auto-close; successes are not aged out by the window.
func (cb *CircuitBreaker) ErrorRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.prune(time.Now())
	return cb.ErrorRateLocked()
}

// ErrorRateLocked computes the error rate assuming cb.mu is already held.
func (cb *CircuitBreaker) ErrorRateLocked() float64 {
	if cb.total == 0 {
		return 0
	}
	return float64(len(cb.errors)) / float64(cb.total)
}

func (cb *CircuitBreaker) prune(now time.Time) {
	cutoff := now.Add(-cb.window)
	kept := cb.errors[:0]
	for _, t := range cb.errors {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.errors = kept
}
