// Package cache provides the shared key/value store used for cache-aside reads of
// remote entities. Entries carry an absolute and an optional sliding expiration.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntryOptions controls expiration of a written entry.
type EntryOptions struct {
	// AbsoluteTTL is the maximum lifetime of the entry. Zero means no absolute limit.
	AbsoluteTTL time.Duration
	// SlidingTTL expires the entry if it is not read for this long. Reads extend it,
	// never past the absolute expiry.
	SlidingTTL time.Duration
}

// Store is a byte-transparent key/value store with per-entry expiration.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte, opts EntryOptions) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Entry is an immutable cached value. Reads that refresh the sliding window replace
// the entry instead of mutating it.
type Entry struct {
	Key            string
	Value          []byte
	InsertedAt     time.Time
	LastAccessedAt time.Time
	AbsoluteExpiry time.Time // zero => none
	SlidingExpiry  time.Duration
}

// Expired reports whether the entry is dead at now.
func (e Entry) Expired(now time.Time) bool {
	if !e.AbsoluteExpiry.IsZero() && !now.Before(e.AbsoluteExpiry) {
		return true
	}
	if e.SlidingExpiry > 0 && !now.Before(e.LastAccessedAt.Add(e.SlidingExpiry)) {
		return true
	}
	return false
}

// Touch returns a copy of the entry with the sliding window restarted at now.
func (e Entry) Touch(now time.Time) Entry {
	e.LastAccessedAt = now
	return e
}

// Key builds the cache key for an entity: "<kind>:<id>".
func Key(kind, id string) string {
	return kind + ":" + id
}

// KindOf returns the entity kind of a key built by Key.
func KindOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}

// GetJSON reads key and decodes it into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, opts EntryOptions) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, opts)
}
