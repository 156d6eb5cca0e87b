// Package resilience provides the call-wrapping policies used for every outbound
// request to a remote dependency.
//
// # Policies
//
// Four independent primitives wrap a Call:
//
//   - Bulkhead bounds concurrent calls and queued waiters per dependency.
//   - CircuitBreaker fails fast while a dependency is known to be unhealthy.
//   - Retry repeats transient failures with exponential backoff.
//   - Timeout bounds a single attempt and cancels it on expiry.
//
// # Pipeline
//
// A Pipeline composes the primitives in a fixed order, outermost first:
//
//	Bulkhead -> CircuitBreaker -> Retry -> Timeout -> transport
//
// The order is part of the contract. The breaker sees the result of the whole retry
// sequence, so one exhausted retry sequence counts as one failure, and each retry
// attempt gets its own timeout window.
//
// Outcomes are values, not errors: a Call always returns an Outcome whose Kind tells
// the caller what happened. Pipeline short-circuits surface as OutcomeRejected. A
// failure seen after the caller's context ended is OutcomeCancelled; it is neither
// retried nor counted by the breaker.
package resilience
