package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Policy wraps a Call with additional behavior.
type Policy interface {
	Wrap(next Call) Call
}

// Chain composes policies; the first policy is the outermost.
func Chain(policies ...Policy) func(Call) Call {
	return func(call Call) Call {
		for i := len(policies) - 1; i >= 0; i-- {
			call = policies[i].Wrap(call)
		}
		return call
	}
}

// RetryConfig configures the Retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int `yaml:"maxAttempts"`
	// BaseDelay is multiplied by 2^attempt to get the backoff.
	BaseDelay time.Duration `yaml:"baseDelay"`
}

// PolicyConfig holds the settings of all four primitives for one dependency.
type PolicyConfig struct {
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
	Timeout        time.Duration        `yaml:"timeout"`
	Bulkhead       BulkheadConfig       `yaml:"bulkhead"`
}

// DefaultPolicyConfig returns 5 attempts with 2^attempt s backoff, a breaker that
// opens after 3 failures for 2 minutes, a 1.5 s attempt timeout and a 10/20 bulkhead.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   time.Second,
		},
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Timeout:        1500 * time.Millisecond,
		Bulkhead: BulkheadConfig{
			MaxConcurrent: 10,
			MaxQueued:     20,
		},
	}
}

// Validate checks the configuration for values the primitives cannot honor.
func (c PolicyConfig) Validate() error {
	var errs []error
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.maxAttempts must be >= 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("retry.baseDelay must not be negative"))
	}
	if c.CircuitBreaker.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("circuitBreaker.failureThreshold must be >= 1, got %d", c.CircuitBreaker.FailureThreshold))
	}
	if c.CircuitBreaker.BreakDuration <= 0 {
		errs = append(errs, fmt.Errorf("circuitBreaker.breakDuration must be positive"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if c.Bulkhead.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("bulkhead.maxConcurrent must be >= 1, got %d", c.Bulkhead.MaxConcurrent))
	}
	if c.Bulkhead.MaxQueued < 0 {
		errs = append(errs, fmt.Errorf("bulkhead.maxQueued must not be negative"))
	}
	return errors.Join(errs...)
}
