package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Hash fields of a cached entry.
const (
	fieldData        = "data"
	fieldAbsExpiry   = "absexp"
	fieldSlidingMsec = "sldexp"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore is a Store backed by Redis. Each entry is a hash holding the payload,
// the absolute expiry (unix ms) and the sliding window (ms); the key TTL is kept at
// min(sliding, remaining absolute).
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k := s.key(key)
	vals, err := s.client.HMGet(ctx, k, fieldAbsExpiry, fieldSlidingMsec, fieldData).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if len(vals) != 3 || vals[2] == nil {
		return nil, false, nil
	}

	data, _ := vals[2].(string)
	absMillis := parseInt(vals[0])
	slidingMillis := parseInt(vals[1])

	if slidingMillis > 0 {
		if ttl, ok := refreshTTL(s.now(), absMillis, slidingMillis); ok {
			if err := s.client.PExpire(ctx, k, ttl).Err(); err != nil {
				return nil, false, fmt.Errorf("redis refresh %s: %w", key, err)
			}
		}
	}
	return []byte(data), true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	now := s.now()
	var absMillis int64 = -1
	if opts.AbsoluteTTL > 0 {
		absMillis = now.Add(opts.AbsoluteTTL).UnixMilli()
	}
	slidingMillis := opts.SlidingTTL.Milliseconds()
	if slidingMillis <= 0 {
		slidingMillis = -1
	}

	ttl := initialTTL(opts)
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, map[string]interface{}{
			fieldAbsExpiry:   absMillis,
			fieldSlidingMsec: slidingMillis,
			fieldData:        value,
		})
		if ttl > 0 {
			pipe.PExpire(ctx, k, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func initialTTL(opts EntryOptions) time.Duration {
	switch {
	case opts.SlidingTTL > 0 && opts.AbsoluteTTL > 0:
		if opts.SlidingTTL < opts.AbsoluteTTL {
			return opts.SlidingTTL
		}
		return opts.AbsoluteTTL
	case opts.SlidingTTL > 0:
		return opts.SlidingTTL
	default:
		return opts.AbsoluteTTL
	}
}

// refreshTTL returns the key TTL after a read at now.
func refreshTTL(now time.Time, absMillis, slidingMillis int64) (time.Duration, bool) {
	if slidingMillis <= 0 {
		return 0, false
	}
	ttl := time.Duration(slidingMillis) * time.Millisecond
	if absMillis > 0 {
		remaining := time.UnixMilli(absMillis).Sub(now)
		if remaining <= 0 {
			return 0, false
		}
		if remaining < ttl {
			ttl = remaining
		}
	}
	return ttl, true
}

func parseInt(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
