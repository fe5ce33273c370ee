// Package resilience guards calls to external worker notifiers.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after maxFailures consecutive failures and rejects calls
// until timeout has elapsed. It then lets a single probe through: success
// closes the circuit, failure reopens it.
type Breaker struct {
	mu          sync.Mutex
	state       state
	probing     bool
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	now         func() time.Time // for testing
}

// NewBreaker creates a closed circuit breaker. maxFailures below 1 is treated as 1.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open or a half-open probe is
// already in flight, in which case it returns ErrCircuitOpen.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return nil
}

// State returns "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

// Ready reports whether Execute would currently run fn. Unlike Execute it
// does not claim the half-open probe.
func (b *Breaker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		return b.now().Sub(b.openedAt) >= b.timeout
	case stateHalfOpen:
		return !b.probing
	default:
		return true
	}
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.state = stateHalfOpen
		b.probing = true
		return true
	case stateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		if b.state != stateOpen {
			slog.Warn("circuit breaker opened", "failures", b.failures, "timeout", b.timeout)
		}
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	if b.state != stateClosed {
		slog.Info("circuit breaker closed")
	}
	b.failures = 0
	b.state = stateClosed
}
