package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrBulkheadFull is returned when no slot and no queue position is available.
	ErrBulkheadFull = errors.New("bulkhead capacity exceeded")
	// ErrAttemptTimeout marks an attempt abandoned by the Timeout policy.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// OutcomeKind tags the result of one remote call.
type OutcomeKind int

const (
	// OutcomeSuccess is a 2xx/3xx response.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNotFound is a 404 response.
	OutcomeNotFound
	// OutcomeClientError is a 400 response: the request itself was invalid.
	OutcomeClientError
	// OutcomeTransientFailure is a network error, timeout or any other non-success status.
	OutcomeTransientFailure
	// OutcomeRejected is a pipeline short-circuit (breaker open, bulkhead full).
	OutcomeRejected
	// OutcomeCancelled is a call abandoned because the caller's context ended.
	// It says nothing about the health of the dependency.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeClientError:
		return "client_error"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one call through a policy.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Body       []byte
	Message    string
	Err        error
}

// Call is one invocation of a remote dependency.
type Call func(ctx context.Context) Outcome

// Success builds a success outcome.
func Success(status int, body []byte) Outcome {
	return Outcome{Kind: OutcomeSuccess, StatusCode: status, Body: body}
}

// NotFound builds a not-found outcome.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound, StatusCode: http.StatusNotFound}
}

// ClientError builds a client error outcome.
func ClientError(status int, message string) Outcome {
	return Outcome{Kind: OutcomeClientError, StatusCode: status, Message: message}
}

// TransientFailure builds a failure outcome from a status, a body and/or a cause.
func TransientFailure(status int, body []byte, err error) Outcome {
	return Outcome{Kind: OutcomeTransientFailure, StatusCode: status, Body: body, Err: err}
}

// Rejected builds a short-circuit outcome.
func Rejected(err error) Outcome {
	return Outcome{Kind: OutcomeRejected, Err: err}
}

// Cancelled builds the outcome of a call whose caller went away.
func Cancelled(err error) Outcome {
	return Outcome{Kind: OutcomeCancelled, Err: err}
}

// cancelledBy turns a failure into Cancelled when ctx has ended. Successes and
// definitive answers (404, 400) are kept.
func cancelledBy(ctx context.Context, out Outcome) Outcome {
	err := ctx.Err()
	if err == nil || out.Kind != OutcomeTransientFailure {
		return out
	}
	return Cancelled(err)
}

// ClassifyStatus maps an HTTP status to an outcome kind.
func ClassifyStatus(status int, body []byte) Outcome {
	switch {
	case status >= 200 && status < 400:
		return Success(status, body)
	case status == http.StatusNotFound:
		return Outcome{Kind: OutcomeNotFound, StatusCode: status, Body: body}
	case status == http.StatusBadRequest:
		return Outcome{Kind: OutcomeClientError, StatusCode: status, Body: body}
	default:
		return TransientFailure(status, body, nil)
	}
}

// Retryable reports whether Retry should attempt the call again.
func (o Outcome) Retryable() bool {
	return o.Kind == OutcomeTransientFailure
}

// Failed reports whether the outcome counts against the circuit breaker.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeTransientFailure
}

// Cause returns an error describing a non-success outcome.
func (o Outcome) Cause() error {
	switch o.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeTransientFailure, OutcomeRejected, OutcomeCancelled:
		if o.Err != nil {
			return o.Err
		}
		if o.StatusCode != 0 {
			return fmt.Errorf("status %d: %s", o.StatusCode, http.StatusText(o.StatusCode))
		}
		return errors.New(o.Kind.String())
	default:
		if o.Message != "" {
			return errors.New(o.Message)
		}
		return errors.New(o.Kind.String())
	}
}

func (o Outcome) String() string {
	if o.StatusCode != 0 {
		return fmt.Sprintf("%s(%d)", o.Kind, o.StatusCode)
	}
	if o.Err != nil {
		return fmt.Sprintf("%s(%v)", o.Kind, o.Err)
	}
	return o.Kind.String()
}
