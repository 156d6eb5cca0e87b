package resilience

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// CircuitBreaker Tests
// =============================================================================

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig()

	if cfg.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.FailureThreshold)
	}
	if cfg.BreakDuration != 2*time.Minute {
		t.Errorf("BreakDuration = %v, want 2m", cfg.BreakDuration)
	}
}

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	if cb == nil {
		t.Fatal("NewCircuitBreaker() returned nil")
	}
	if cb.State() != CircuitClosed {
		t.Errorf("initial State() = %v, want %v", cb.State(), CircuitClosed)
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, BreakDuration: time.Minute})
	call := &countingCall{out: unavailable()}

	for i := 1; i < 3; i++ {
		cb.Execute(context.Background(), call.Call)
		if cb.State() != CircuitClosed {
			t.Fatalf("after %d failures State() = %v, want closed", i, cb.State())
		}
	}

	cb.Execute(context.Background(), call.Call)
	if cb.State() != CircuitOpen {
		t.Errorf("after 3 failures State() = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, BreakDuration: time.Minute}, WithClock(clock.Now))
	failing := &countingCall{out: unavailable()}
	cb.Execute(context.Background(), failing.Call)

	healthy := &countingCall{out: ok()}
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		out := cb.Execute(context.Background(), healthy.Call)
		if out.Kind != OutcomeRejected || out.Err != ErrCircuitOpen {
			t.Fatalf("Execute() = %v, want rejected with ErrCircuitOpen", out)
		}
	}
	if healthy.Count() != 0 {
		t.Errorf("underlying calls while open = %d, want 0", healthy.Count())
	}
}

func TestCircuitBreaker_HalfOpenAllowsSingleProbe(t *testing.T) {
	clock := newFakeClock()
	var (
		mu          sync.Mutex
		transitions []string
	)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		BreakDuration:    time.Minute,
		OnStateChange: func(from, to CircuitState) {
			mu.Lock()
			transitions = append(transitions, from.String()+"->"+to.String())
			mu.Unlock()
		},
	}, WithClock(clock.Now))

	cb.Execute(context.Background(), (&countingCall{out: unavailable()}).Call)
	clock.Advance(time.Minute)

	probeStarted := make(chan struct{})
	releaseProbe := make(chan struct{})
	probeDone := make(chan Outcome)
	go func() {
		probeDone <- cb.Execute(context.Background(), func(context.Context) Outcome {
			close(probeStarted)
			<-releaseProbe
			return ok()
		})
	}()
	<-probeStarted

	if cb.State() != CircuitHalfOpen {
		t.Fatalf("State() during probe = %v, want half-open", cb.State())
	}

	other := &countingCall{out: ok()}
	if out := cb.Execute(context.Background(), other.Call); out.Kind != OutcomeRejected {
		t.Errorf("second call during probe = %v, want rejected", out)
	}
	if other.Count() != 0 {
		t.Errorf("second call reached dependency %d times, want 0", other.Count())
	}

	close(releaseProbe)
	if out := <-probeDone; out.Kind != OutcomeSuccess {
		t.Errorf("probe outcome = %v, want success", out)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("State() after successful probe = %v, want closed", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("Failures() after reset = %d, want 0", cb.Failures())
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, BreakDuration: time.Minute}, WithClock(clock.Now))
	failing := &countingCall{out: unavailable()}

	cb.Execute(context.Background(), failing.Call)
	clock.Advance(time.Minute)
	cb.Execute(context.Background(), failing.Call)

	if cb.State() != CircuitOpen {
		t.Fatalf("State() after failed probe = %v, want open", cb.State())
	}
	if failing.Count() != 2 {
		t.Errorf("calls = %d, want 2 (trip + probe)", failing.Count())
	}

	// The break window restarts at the failed probe.
	clock.Advance(59 * time.Second)
	if out := cb.Execute(context.Background(), failing.Call); out.Kind != OutcomeRejected {
		t.Errorf("Execute() inside new window = %v, want rejected", out)
	}
	if failing.Count() != 2 {
		t.Errorf("calls = %d, want 2", failing.Count())
	}
}

// abandoning returns the failure a transport reports once its context ends.
func abandoning(ctx context.Context) Outcome {
	<-ctx.Done()
	return TransientFailure(0, nil, ctx.Err())
}

func TestCircuitBreaker_CancelledCallsDoNotCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, BreakDuration: time.Minute})
	cb.Execute(context.Background(), (&countingCall{out: unavailable()}).Call)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := cb.Execute(ctx, abandoning)
		if out.Kind != OutcomeCancelled {
			t.Fatalf("Execute() with cancelled context = %v, want cancelled", out)
		}
	}

	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if cb.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1 (cancellations neither count nor reset)", cb.Failures())
	}
}

func TestCircuitBreaker_CancelledMidCallDoesNotCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, BreakDuration: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan Outcome)
	go func() {
		done <- cb.Execute(ctx, func(ctx context.Context) Outcome {
			close(started)
			return abandoning(ctx)
		})
	}()
	<-started
	cancel()

	if out := <-done; out.Kind != OutcomeCancelled {
		t.Errorf("Execute() = %v, want cancelled", out)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_CancelledHalfOpenTrialFreesSlot(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		BreakDuration:    time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}, WithClock(clock.Now))
	cb.Execute(context.Background(), (&countingCall{out: unavailable()}).Call)
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if out := cb.Execute(ctx, abandoning); out.Kind != OutcomeCancelled {
		t.Fatalf("probe with cancelled context = %v, want cancelled", out)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("State() after cancelled probe = %v, want half-open", cb.State())
	}

	healthy := &countingCall{out: ok()}
	if out := cb.Execute(context.Background(), healthy.Call); out.Kind != OutcomeSuccess {
		t.Errorf("next probe = %v, want success", out)
	}
	if healthy.Count() != 1 {
		t.Errorf("next probe reached dependency %d times, want 1", healthy.Count())
	}
	if cb.State() != CircuitClosed {
		t.Errorf("State() after successful probe = %v, want closed", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, BreakDuration: time.Minute})
	failing := &countingCall{out: unavailable()}
	healthy := &countingCall{out: ok()}

	cb.Execute(context.Background(), failing.Call)
	cb.Execute(context.Background(), failing.Call)
	cb.Execute(context.Background(), healthy.Call)
	cb.Execute(context.Background(), failing.Call)
	cb.Execute(context.Background(), failing.Call)

	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want closed: failures were not consecutive", cb.State())
	}
	if cb.Failures() != 2 {
		t.Errorf("Failures() = %d, want 2", cb.Failures())
	}
}

func TestCircuitBreaker_ExpectedOutcomesAreNotFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, BreakDuration: time.Minute})

	cb.Execute(context.Background(), (&countingCall{out: NotFound()}).Call)
	cb.Execute(context.Background(), (&countingCall{out: ClientError(http.StatusBadRequest, "bad id")}).Call)

	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_ConcurrentFailuresOpenOnce(t *testing.T) {
	var (
		mu    sync.Mutex
		opens int
	)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 20,
		BreakDuration:    time.Hour,
		OnStateChange: func(_, to CircuitState) {
			if to == CircuitOpen {
				mu.Lock()
				opens++
				mu.Unlock()
			}
		},
	})
	failing := &countingCall{out: unavailable()}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb.Execute(context.Background(), failing.Call)
		}()
	}
	wg.Wait()

	if cb.State() != CircuitOpen {
		t.Errorf("State() = %v, want open", cb.State())
	}
	mu.Lock()
	defer mu.Unlock()
	if opens != 1 {
		t.Errorf("open transitions = %d, want 1", opens)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
