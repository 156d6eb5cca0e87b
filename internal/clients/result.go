package clients

import (
	"errors"
	"fmt"

	"github.com/R3E-Network/orders_service/internal/resilience"
)

var (
	// ErrNotFound means the remote entity does not exist.
	ErrNotFound = errors.New("remote entity not found")
	// ErrInvalidInput means the remote service rejected the request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfigurationFault means a degraded response did not honor the fallback contract.
	ErrConfigurationFault = errors.New("remote degraded-mode contract violated")
)

// Source tells where a Result value came from.
type Source int

const (
	SourceRemote Source = iota
	SourceCache
	SourceFallback
	SourcePlaceholder
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "cache"
	case SourceFallback:
		return "fallback"
	case SourcePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Result is the value returned by a gateway fetch.
type Result[T any] struct {
	Value  T
	Source Source
	// Cause explains a fallback or placeholder value.
	Cause error
}

// Degraded reports whether the value is a substitute for the real entity.
func (r Result[T]) Degraded() bool {
	return r.Source == SourceFallback || r.Source == SourcePlaceholder
}

// PlaceholderMarker is written into the text fields of placeholder values.
const PlaceholderMarker = "Temporarily Unavailable"

// Failure kinds appended to the placeholder marker.
const (
	FailureTimeout     = "timeout"
	FailureCircuitOpen = "circuit open"
	FailureBulkhead    = "bulkhead"
	FailureUnavailable = "unavailable"
)

// Marker returns the placeholder text for a failure kind.
func Marker(kind string) string {
	if kind == "" {
		return PlaceholderMarker
	}
	return fmt.Sprintf("%s (%s)", PlaceholderMarker, kind)
}

// failureKind names why the pipeline gave up on a call.
func failureKind(out resilience.Outcome) string {
	switch {
	case errors.Is(out.Err, resilience.ErrCircuitOpen):
		return FailureCircuitOpen
	case errors.Is(out.Err, resilience.ErrBulkheadFull):
		return FailureBulkhead
	case errors.Is(out.Err, resilience.ErrAttemptTimeout):
		return FailureTimeout
	default:
		return FailureUnavailable
	}
}
