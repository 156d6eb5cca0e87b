package cache

import "context"

// Recorder receives cache lookup results.
type Recorder interface {
	CacheLookup(kind string, hit bool)
}

// InstrumentedStore reports hits and misses of an underlying Store.
type InstrumentedStore struct {
	Store
	recorder Recorder
}

// Instrument wraps s so every Get is reported to r.
func Instrument(s Store, r Recorder) *InstrumentedStore {
	return &InstrumentedStore{Store: s, recorder: r}
}

// Get implements Store.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := s.Store.Get(ctx, key)
	if err == nil && s.recorder != nil {
		s.recorder.CacheLookup(KindOf(key), ok)
	}
	return value, ok, err
}
