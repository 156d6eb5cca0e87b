package resilience

import (
	"context"
	"sync"
	"sync/atomic"
)

// BulkheadConfig sizes a bulkhead.
type BulkheadConfig struct {
	MaxConcurrent int `yaml:"maxConcurrent"`
	MaxQueued     int `yaml:"maxQueued"`
}

// Bulkhead bounds in-flight calls to a dependency. Callers beyond MaxConcurrent wait
// in a queue of at most MaxQueued; anyone beyond that is rejected immediately.
type Bulkhead struct {
	slots     chan struct{}
	maxQueued int64
	queued    atomic.Int64
}

// NewBulkhead creates a bulkhead. maxConcurrent below 1 is treated as 1.
func NewBulkhead(maxConcurrent, maxQueued int) *Bulkhead {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxQueued < 0 {
		maxQueued = 0
	}
	return &Bulkhead{
		slots:     make(chan struct{}, maxConcurrent),
		maxQueued: int64(maxQueued),
	}
}

// Acquire takes a slot, waiting in the queue if there is room. The returned release
// func must be called exactly once; extra calls are ignored.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case b.slots <- struct{}{}:
		return b.releaser(), nil
	default:
	}

	if b.queued.Add(1) > b.maxQueued {
		b.queued.Add(-1)
		return nil, ErrBulkheadFull
	}
	defer b.queued.Add(-1)

	select {
	case b.slots <- struct{}{}:
		return b.releaser(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bulkhead) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-b.slots })
	}
}

// Execute runs call inside a slot. The slot is released whatever the outcome.
func (b *Bulkhead) Execute(ctx context.Context, call Call) Outcome {
	release, err := b.Acquire(ctx)
	if err != nil {
		return Rejected(err)
	}
	defer release()
	return call(ctx)
}

// Wrap implements Policy.
func (b *Bulkhead) Wrap(next Call) Call {
	return func(ctx context.Context) Outcome {
		return b.Execute(ctx, next)
	}
}

// InFlight returns the number of held slots.
func (b *Bulkhead) InFlight() int {
	return len(b.slots)
}

// Queued returns the number of waiting callers.
func (b *Bulkhead) Queued() int {
	return int(b.queued.Load())
}

// Capacity returns MaxConcurrent.
func (b *Bulkhead) Capacity() int {
	return cap(b.slots)
}
