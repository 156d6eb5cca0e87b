package resilience

import (
	"context"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int `yaml:"failureThreshold"`
	// BreakDuration is how long the circuit stays open before a probe is allowed.
	BreakDuration time.Duration `yaml:"breakDuration"`
	// OnStateChange is called after every transition, outside the breaker lock.
	OnStateChange func(from, to CircuitState) `yaml:"-"`
}

// DefaultCircuitBreakerConfig returns 3 failures / 2 minutes.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		BreakDuration:    2 * time.Minute,
	}
}

// CircuitBreaker implements the circuit breaker pattern. One instance is shared by
// every caller of a dependency.
type CircuitBreaker struct {
	mu sync.Mutex

	config CircuitBreakerConfig
	state  CircuitState
	now    func() time.Time

	failures int
	openedAt time.Time
	probing  bool
	lastErr  error
}

// BreakerOption customises a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 1
	}
	cb := &CircuitBreaker{
		config: config,
		state:  CircuitClosed,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

type transition struct {
	from, to CircuitState
}

// admit decides whether a call may proceed. probe is true for the single call
// admitted in half-open state.
func (cb *CircuitBreaker) admit() (probe bool, tr *transition, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return false, nil, nil
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.BreakDuration {
			return false, nil, ErrCircuitOpen
		}
		tr = cb.transitionLocked(CircuitHalfOpen)
		cb.probing = true
		return true, tr, nil
	case CircuitHalfOpen:
		if cb.probing {
			return false, nil, ErrCircuitOpen
		}
		cb.probing = true
		return true, nil, nil
	}
	return false, nil, nil
}

// record folds the outcome of an admitted call into the breaker state.
func (cb *CircuitBreaker) record(out Outcome, probe bool) *transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if out.Kind == OutcomeCancelled {
		// The caller left; the dependency was not judged. A cancelled probe
		// frees the half-open slot for the next caller.
		if probe && cb.state == CircuitHalfOpen {
			cb.probing = false
		}
		return nil
	}

	failed := out.Failed()
	if failed {
		cb.lastErr = out.Cause()
	}

	switch cb.state {
	case CircuitClosed:
		if !failed {
			cb.failures = 0
			return nil
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			return cb.transitionLocked(CircuitOpen)
		}
	case CircuitHalfOpen:
		if !probe {
			// Admitted before the circuit opened; only the probe decides.
			return nil
		}
		cb.probing = false
		if failed {
			return cb.transitionLocked(CircuitOpen)
		}
		return cb.transitionLocked(CircuitClosed)
	case CircuitOpen:
		// Late result of a call admitted while closed.
	}
	return nil
}

func (cb *CircuitBreaker) transitionLocked(to CircuitState) *transition {
	from := cb.state
	cb.state = to

	switch to {
	case CircuitClosed:
		cb.failures = 0
		cb.probing = false
	case CircuitOpen:
		cb.openedAt = cb.now()
		cb.probing = false
	case CircuitHalfOpen:
	}
	return &transition{from: from, to: to}
}

func (cb *CircuitBreaker) notify(tr *transition) {
	if tr == nil || cb.config.OnStateChange == nil {
		return
	}
	cb.config.OnStateChange(tr.from, tr.to)
}

// Execute runs call unless the circuit is open. A failure that coincides with the
// caller's context ending is returned as Cancelled and does not count.
func (cb *CircuitBreaker) Execute(ctx context.Context, call Call) Outcome {
	probe, tr, err := cb.admit()
	cb.notify(tr)
	if err != nil {
		return Rejected(err)
	}

	out := cancelledBy(ctx, call(ctx))
	cb.notify(cb.record(out, probe))
	return out
}

// Wrap implements Policy.
func (cb *CircuitBreaker) Wrap(next Call) Call {
	return func(ctx context.Context) Outcome {
		return cb.Execute(ctx, next)
	}
}

// State returns the current circuit state. An open circuit whose break duration has
// elapsed still reports open until the next call probes it.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// LastError returns the cause of the last recorded failure.
func (cb *CircuitBreaker) LastError() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastErr
}
