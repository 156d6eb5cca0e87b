// Package config loads the orders service configuration from the environment, an
// optional .env file and an optional YAML policy file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/R3E-Network/orders_service/internal/resilience"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Users     DependencyConfig
	Products  DependencyConfig
	RateLimit RateLimitConfig
	Janitor   JanitorConfig

	// PolicyFile optionally overrides the per-dependency policies.
	PolicyFile string `env:"POLICY_FILE"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR,default=:8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`

	// CORSOrigins is a semicolon separated list.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig mirrors logger.LoggingConfig with environment bindings.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=text"`
	Output     string `env:"LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=orders"`
}

// Logger converts the section into the logger package configuration.
func (c LoggingConfig) Logger() logger.LoggingConfig {
	return logger.LoggingConfig{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePrefix: c.FilePrefix,
	}
}

// DatabaseConfig configures the order store. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=30m"`
	AutoMigrate     bool          `env:"DATABASE_AUTO_MIGRATE,default=true"`
}

// CacheConfig selects and sizes the dependency cache.
type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND,default=memory"`
	RedisAddr     string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
	KeyPrefix     string        `env:"CACHE_KEY_PREFIX,default=orders:"`
	AbsoluteTTL   time.Duration `env:"CACHE_ABSOLUTE_TTL,default=30s"`
	SlidingTTL    time.Duration `env:"CACHE_SLIDING_TTL,default=10s"`
}

// DependencyConfig configures one remote service gateway.
type DependencyConfig struct {
	BaseURL string                  `yaml:"baseURL"`
	Timeout time.Duration           `yaml:"httpTimeout"`
	Policy  resilience.PolicyConfig `yaml:"policy"`
}

// RateLimitConfig configures inbound per-client throttling. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64       `env:"RATE_LIMIT_RPS,default=50"`
	Burst             int           `env:"RATE_LIMIT_BURST,default=100"`
	IdleAfter         time.Duration `env:"RATE_LIMIT_IDLE_AFTER,default=10m"`
}

// JanitorConfig schedules maintenance jobs using cron expressions.
type JanitorConfig struct {
	CacheSweepSpec   string `env:"JANITOR_CACHE_SWEEP,default=@every 1m"`
	LimiterSweepSpec string `env:"JANITOR_LIMITER_SWEEP,default=@every 5m"`
	StatusReportSpec string `env:"JANITOR_STATUS_REPORT,default=@every 30s"`
}

type dependencyEnv struct {
	UsersBaseURL    string        `env:"USERS_BASE_URL,default=http://localhost:5001"`
	UsersTimeout    time.Duration `env:"USERS_HTTP_TIMEOUT,default=30s"`
	ProductsBaseURL string        `env:"PRODUCTS_BASE_URL,default=http://localhost:5002"`
	ProductsTimeout time.Duration `env:"PRODUCTS_HTTP_TIMEOUT,default=30s"`
}

// Load reads an optional .env file, decodes the environment and applies the policy
// file when one is configured.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := decode(cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	var deps dependencyEnv
	if err := decode(&deps); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	cfg.Users = DependencyConfig{BaseURL: deps.UsersBaseURL, Timeout: deps.UsersTimeout, Policy: DefaultUsersPolicy()}
	cfg.Products = DependencyConfig{BaseURL: deps.ProductsBaseURL, Timeout: deps.ProductsTimeout, Policy: DefaultProductsPolicy()}

	if cfg.PolicyFile != "" {
		if err := ApplyPolicyFile(cfg, cfg.PolicyFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func decode(target interface{}) error {
	err := envdecode.Decode(target)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// DefaultUsersPolicy is the users directory policy: 10 concurrent, 20 queued.
func DefaultUsersPolicy() resilience.PolicyConfig {
	return resilience.DefaultPolicyConfig()
}

// DefaultProductsPolicy is the product catalog policy. Orders fan out one lookup per
// item, so the catalog gets a narrow bulkhead with a deeper queue.
func DefaultProductsPolicy() resilience.PolicyConfig {
	p := resilience.DefaultPolicyConfig()
	p.Bulkhead = resilience.BulkheadConfig{MaxConcurrent: 2, MaxQueued: 40}
	return p
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Cache.Backend) {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("cache backend must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend))
	}
	if c.Cache.AbsoluteTTL < 0 || c.Cache.SlidingTTL < 0 {
		errs = append(errs, errors.New("cache ttl must not be negative"))
	}
	if c.Users.BaseURL == "" {
		errs = append(errs, errors.New("users base url is required"))
	}
	if c.Products.BaseURL == "" {
		errs = append(errs, errors.New("products base url is required"))
	}
	if err := c.Users.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("users policy: %w", err))
	}
	if err := c.Products.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("products policy: %w", err))
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	return errors.Join(errs...)
}
