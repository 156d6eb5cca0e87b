package resilience

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingCall returns the given outcome and counts invocations.
type countingCall struct {
	calls atomic.Int64
	out   Outcome
}

func (c *countingCall) Call(context.Context) Outcome {
	c.calls.Add(1)
	return c.out
}

func (c *countingCall) Count() int {
	return int(c.calls.Load())
}

func unavailable() Outcome {
	return TransientFailure(http.StatusServiceUnavailable, nil, nil)
}

func ok() Outcome {
	return Success(http.StatusOK, []byte(`{}`))
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordedSleeps) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}
