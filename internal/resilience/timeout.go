package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Timeout bounds a single attempt.
type Timeout struct {
	duration time.Duration
}

// NewTimeout creates a Timeout. A non-positive duration disables it.
func NewTimeout(d time.Duration) *Timeout {
	return &Timeout{duration: d}
}

// Duration returns the per-attempt limit.
func (t *Timeout) Duration() time.Duration {
	return t.duration
}

// Do runs call with its own deadline. On expiry the attempt context is cancelled,
// a timeout failure is returned and any late result is dropped.
func (t *Timeout) Do(ctx context.Context, call Call) Outcome {
	if t.duration <= 0 {
		return call(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.duration)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		done <- call(attemptCtx)
	}()

	select {
	case out := <-done:
		if ctx.Err() != nil {
			return cancelledBy(ctx, out)
		}
		if out.Kind == OutcomeTransientFailure &&
			errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			out.Err = t.timeoutErr()
		}
		return out
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return Cancelled(err)
		}
		return TransientFailure(0, nil, t.timeoutErr())
	}
}

func (t *Timeout) timeoutErr() error {
	return fmt.Errorf("%w after %s", ErrAttemptTimeout, t.duration)
}

// Wrap implements Policy.
func (t *Timeout) Wrap(next Call) Call {
	return func(ctx context.Context) Outcome {
		return t.Do(ctx, next)
	}
}
