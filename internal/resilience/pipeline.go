package resilience

import (
	"context"
	"time"
)

// Pipeline is the per-dependency composition of Bulkhead, CircuitBreaker, Retry and
// Timeout, in that order. A Pipeline is safe for concurrent use; its breaker and
// bulkhead are shared by every Execute call.
type Pipeline struct {
	name     string
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	retry    *Retry
	timeout  *Timeout
	observer Observer
	wrap     func(Call) Call
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	observer     Observer
	clock        func() time.Time
	sleep        SleepFunc
	retryBackoff BackoffFunc
}

// WithObserver attaches an observer for breaker transitions, retries and rejections.
func WithObserver(o Observer) PipelineOption {
	return func(p *pipelineOptions) { p.observer = o }
}

// WithPipelineClock sets the breaker clock.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *pipelineOptions) { p.clock = now }
}

// WithPipelineSleep sets the retry sleeper.
func WithPipelineSleep(fn SleepFunc) PipelineOption {
	return func(p *pipelineOptions) { p.sleep = fn }
}

// WithBackoff overrides the exponential backoff derived from RetryConfig.BaseDelay.
func WithBackoff(fn BackoffFunc) PipelineOption {
	return func(p *pipelineOptions) { p.retryBackoff = fn }
}

// NewPipeline builds the pipeline for one dependency.
func NewPipeline(name string, cfg PolicyConfig, opts ...PipelineOption) *Pipeline {
	o := pipelineOptions{observer: NopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}

	p := &Pipeline{name: name, observer: o.observer}

	breakerCfg := cfg.CircuitBreaker
	userHook := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to CircuitState) {
		p.observer.StateChanged(name, from, to)
		if userHook != nil {
			userHook(from, to)
		}
	}
	var breakerOpts []BreakerOption
	if o.clock != nil {
		breakerOpts = append(breakerOpts, WithClock(o.clock))
	}

	backoff := o.retryBackoff
	if backoff == nil {
		backoff = ExponentialBackoff(cfg.Retry.BaseDelay)
	}
	retryOpts := []RetryOption{
		WithRetryHook(func(attempt int, delay time.Duration, last Outcome) {
			p.observer.Retrying(name, attempt, delay, last)
		}),
	}
	if o.sleep != nil {
		retryOpts = append(retryOpts, WithSleep(o.sleep))
	}

	p.bulkhead = NewBulkhead(cfg.Bulkhead.MaxConcurrent, cfg.Bulkhead.MaxQueued)
	p.breaker = NewCircuitBreaker(breakerCfg, breakerOpts...)
	p.retry = NewRetry(cfg.Retry.MaxAttempts, backoff, retryOpts...)
	p.timeout = NewTimeout(cfg.Timeout)
	p.wrap = Chain(p.bulkhead, p.breaker, p.retry, p.timeout)
	return p
}

// Execute runs call through the pipeline.
func (p *Pipeline) Execute(ctx context.Context, call Call) Outcome {
	start := time.Now()
	out := p.wrap(call)(ctx)
	if out.Kind == OutcomeRejected {
		p.observer.Rejected(p.name, out.Err)
	}
	p.observer.Finished(p.name, out, time.Since(start))
	return out
}

// Name returns the dependency name.
func (p *Pipeline) Name() string { return p.name }

// Breaker exposes the shared circuit breaker.
func (p *Pipeline) Breaker() *CircuitBreaker { return p.breaker }

// Bulkhead exposes the shared bulkhead.
func (p *Pipeline) Bulkhead() *Bulkhead { return p.bulkhead }
