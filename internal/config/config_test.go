package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.AbsoluteTTL)
	assert.Equal(t, 10*time.Second, cfg.Cache.SlidingTTL)
	assert.Empty(t, cfg.Database.DSN)

	assert.Equal(t, 10, cfg.Users.Policy.Bulkhead.MaxConcurrent)
	assert.Equal(t, 20, cfg.Users.Policy.Bulkhead.MaxQueued)
	assert.Equal(t, 2, cfg.Products.Policy.Bulkhead.MaxConcurrent)
	assert.Equal(t, 40, cfg.Products.Policy.Bulkhead.MaxQueued)
	assert.Equal(t, 5, cfg.Products.Policy.Retry.MaxAttempts)
	assert.Equal(t, 3, cfg.Products.Policy.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Products.Policy.CircuitBreaker.BreakDuration)
	assert.Equal(t, 1500*time.Millisecond, cfg.Products.Policy.Timeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CACHE_SLIDING_TTL", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example;https://b.example")
	t.Setenv("USERS_BASE_URL", "http://users:8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.Cache.SlidingTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "http://users:8080", cfg.Users.BaseURL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	path := writeFile(t, "test.env", "LOG_LEVEL=debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "debug", cfg.Logging.Logger().Level)
}

func TestLoad_MissingDotEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_PolicyFileMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "policy.yaml", `
products:
  baseURL: http://catalog:9000
  policy:
    retry:
      maxAttempts: 2
    timeout: 2s
    bulkhead:
      maxConcurrent: 4
`)
	t.Setenv("POLICY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://catalog:9000", cfg.Products.BaseURL)
	assert.Equal(t, 2, cfg.Products.Policy.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Products.Policy.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Products.Policy.Timeout)
	assert.Equal(t, 4, cfg.Products.Policy.Bulkhead.MaxConcurrent)
	assert.Equal(t, 40, cfg.Products.Policy.Bulkhead.MaxQueued)

	assert.Equal(t, DefaultUsersPolicy(), cfg.Users.Policy)
}

func TestLoad_InvalidSettings(t *testing.T) {
	t.Run("cache backend", func(t *testing.T) {
		t.Setenv("CACHE_BACKEND", "memcached")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache backend")
	})

	t.Run("policy", func(t *testing.T) {
		path := writeFile(t, "policy.yaml", "users:\n  policy:\n    retry:\n      maxAttempts: 0\n")
		t.Setenv("POLICY_FILE", path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "users policy")
	})

	t.Run("malformed policy file", func(t *testing.T) {
		path := writeFile(t, "policy.yaml", "users: [not, a, map")
		t.Setenv("POLICY_FILE", path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse policy file")
	})
}
