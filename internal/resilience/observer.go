package resilience

import "time"

// Observer receives pipeline events for logging and metrics.
type Observer interface {
	StateChanged(dependency string, from, to CircuitState)
	Retrying(dependency string, attempt int, delay time.Duration, last Outcome)
	Rejected(dependency string, err error)
	Finished(dependency string, out Outcome, elapsed time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StateChanged(string, CircuitState, CircuitState) {}

func (NopObserver) Retrying(string, int, time.Duration, Outcome) {}

func (NopObserver) Rejected(string, error) {}

func (NopObserver) Finished(string, Outcome, time.Duration) {}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) StateChanged(dep string, from, to CircuitState) {
	for _, obs := range o {
		obs.StateChanged(dep, from, to)
	}
}

func (o Observers) Retrying(dep string, attempt int, delay time.Duration, last Outcome) {
	for _, obs := range o {
		obs.Retrying(dep, attempt, delay, last)
	}
}

func (o Observers) Rejected(dep string, err error) {
	for _, obs := range o {
		obs.Rejected(dep, err)
	}
}

func (o Observers) Finished(dep string, out Outcome, elapsed time.Duration) {
	for _, obs := range o {
		obs.Finished(dep, out, elapsed)
	}
}
