package quote

import (
	"sync"
	"time"
)

// breaker is the consecutive-failure circuit breaker guarding the
// upstream providers. After threshold consecutive failures the circuit
// opens for cooldown; while open the service serves cached values
// instead of calling upstream. When the cooldown elapses the circuit
// closes again, so one further failure reopens it immediately.
type breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	failures int
	open     bool
	openedAt time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown}
}

// isOpen reports whether the circuit rejects upstream calls at now.
func (b *breaker) isOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return false
	}
	if now.Sub(b.openedAt) >= b.cooldown {
		// Cooldown elapsed: allow a recovery attempt. failures stays
		// one short of the threshold so a failed attempt reopens.
		b.open = false
		b.failures = b.threshold - 1
		return false
	}
	return true
}

// retryAt returns when the cooldown ends. Zero when closed.
func (b *breaker) retryAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return time.Time{}
	}
	return b.openedAt.Add(b.cooldown)
}

// recordFailure counts one upstream failure, opening the circuit at the
// threshold.
func (b *breaker) recordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures >= b.threshold && !b.open {
		b.open = true
		b.openedAt = now
	}
}

// recordSuccess resets the failure counter and closes the circuit.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
}
