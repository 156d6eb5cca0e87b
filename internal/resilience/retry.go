package resilience

import (
	"context"
	"time"
)

// BackoffFunc returns the delay before attempt+1, given the 1-based attempt that just failed.
type BackoffFunc func(attempt int) time.Duration

// maxBackoffShift caps 2^attempt so the delay cannot overflow.
const maxBackoffShift = 30

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		if attempt > maxBackoffShift {
			attempt = maxBackoffShift
		}
		return base * time.Duration(1<<uint(attempt))
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry repeats transient failures up to MaxAttempts calls in total.
type Retry struct {
	maxAttempts int
	backoff     BackoffFunc
	sleep       SleepFunc
	onRetry     func(attempt int, delay time.Duration, last Outcome)
}

// RetryOption customises a Retry.
type RetryOption func(*Retry)

// WithSleep replaces the sleeper, mainly for tests.
func WithSleep(fn SleepFunc) RetryOption {
	return func(r *Retry) { r.sleep = fn }
}

// WithRetryHook is invoked before each backoff sleep.
func WithRetryHook(fn func(attempt int, delay time.Duration, last Outcome)) RetryOption {
	return func(r *Retry) { r.onRetry = fn }
}

// NewRetry creates a Retry. maxAttempts below 1 is treated as 1.
func NewRetry(maxAttempts int, backoff BackoffFunc, opts ...RetryOption) *Retry {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second)
	}
	r := &Retry{
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt budget.
func (r *Retry) MaxAttempts() int {
	return r.maxAttempts
}

// Do runs call until it returns a non-retryable outcome or the budget is spent.
// The last outcome is returned unchanged on exhaustion.
func (r *Retry) Do(ctx context.Context, call Call) Outcome {
	var out Outcome
	for attempt := 1; ; attempt++ {
		out = call(ctx)
		if !out.Retryable() || attempt >= r.maxAttempts {
			return out
		}

		delay := r.backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, delay, out)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return out
		}
	}
}

// Wrap implements Policy.
func (r *Retry) Wrap(next Call) Call {
	return func(ctx context.Context) Outcome {
		return r.Do(ctx, next)
	}
}
