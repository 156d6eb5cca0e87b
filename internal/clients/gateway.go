package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/R3E-Network/orders_service/internal/cache"
	"github.com/R3E-Network/orders_service/internal/httputil"
	"github.com/R3E-Network/orders_service/internal/resilience"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

// DefaultCacheTTL is the expiration applied to fetched entities.
var DefaultCacheTTL = cache.EntryOptions{
	AbsoluteTTL: 30 * time.Second,
	SlidingTTL:  10 * time.Second,
}

// GatewayConfig holds what every gateway needs.
type GatewayConfig struct {
	// Name identifies the dependency in logs and metrics.
	Name     string
	Client   *httputil.Client
	Cache    cache.Store
	CacheTTL cache.EntryOptions
	Policy   resilience.PolicyConfig
	Logger   *logger.Logger
	// PipelineOptions are forwarded to resilience.NewPipeline.
	PipelineOptions []resilience.PipelineOption
}

// codec describes one remote entity kind.
type codec[T any] struct {
	kind           string
	path           func(id string) string
	placeholder    func(failure string) T
	fallbackFields []string
}

// Gateway fetches one kind of remote entity with cache-aside reads and a
// resilience pipeline.
type Gateway[T any] struct {
	name     string
	client   *httputil.Client
	cache    cache.Store
	ttl      cache.EntryOptions
	pipeline *resilience.Pipeline
	codec    codec[T]
	log      *logrus.Entry
}

func newGateway[T any](cfg GatewayConfig, c codec[T]) *Gateway[T] {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	ttl := cfg.CacheTTL
	if ttl.AbsoluteTTL == 0 && ttl.SlidingTTL == 0 {
		ttl = DefaultCacheTTL
	}
	entry := log.Component("gateway").WithField("dependency", cfg.Name)

	policy := cfg.Policy
	userHook := policy.CircuitBreaker.OnStateChange
	policy.CircuitBreaker.OnStateChange = func(from, to resilience.CircuitState) {
		switch to {
		case resilience.CircuitOpen:
			entry.WithField("from", from.String()).
				WithField("break_duration", policy.CircuitBreaker.BreakDuration.String()).
				Warn("circuit breaker opened")
		case resilience.CircuitClosed:
			entry.Info("circuit breaker reset")
		default:
			entry.Info("circuit breaker half-open, probing")
		}
		if userHook != nil {
			userHook(from, to)
		}
	}

	return &Gateway[T]{
		name:     cfg.Name,
		client:   cfg.Client,
		cache:    store,
		ttl:      ttl,
		pipeline: resilience.NewPipeline(cfg.Name, policy, cfg.PipelineOptions...),
		codec:    c,
		log:      entry,
	}
}

// Name returns the dependency name.
func (g *Gateway[T]) Name() string { return g.name }

// Pipeline exposes the gateway's resilience pipeline.
func (g *Gateway[T]) Pipeline() *resilience.Pipeline { return g.pipeline }

// Fetch returns the entity with the given id.
func (g *Gateway[T]) Fetch(ctx context.Context, id string) (Result[T], error) {
	key := cache.Key(g.codec.kind, id)

	cached, ok, err := cache.GetJSON[T](ctx, g.cache, key)
	if err != nil {
		g.log.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
	} else if ok {
		return Result[T]{Value: cached, Source: SourceCache}, nil
	}

	out := g.pipeline.Execute(ctx, g.call(g.codec.path(id)))
	return g.interpret(ctx, key, id, out)
}

func (g *Gateway[T]) call(path string) resilience.Call {
	return func(ctx context.Context) resilience.Outcome {
		status, body, err := g.client.Get(ctx, path)
		if err != nil {
			return resilience.TransientFailure(status, nil, err)
		}
		return resilience.ClassifyStatus(status, body)
	}
}

func (g *Gateway[T]) interpret(ctx context.Context, key, id string, out resilience.Outcome) (Result[T], error) {
	switch out.Kind {
	case resilience.OutcomeSuccess:
		var v T
		if err := json.Unmarshal(out.Body, &v); err != nil {
			return Result[T]{}, fmt.Errorf("%w: %s %s: decode response: %v", ErrConfigurationFault, g.codec.kind, id, err)
		}
		if err := cache.SetJSON(ctx, g.cache, key, v, g.ttl); err != nil {
			g.log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
		return Result[T]{Value: v, Source: SourceRemote}, nil

	case resilience.OutcomeNotFound:
		return Result[T]{}, fmt.Errorf("%s %s: %w", g.codec.kind, id, ErrNotFound)

	case resilience.OutcomeClientError:
		return Result[T]{}, fmt.Errorf("%s %s: %w: %s", g.codec.kind, id, ErrInvalidInput, clientMessage(out))

	case resilience.OutcomeTransientFailure:
		if out.StatusCode == http.StatusServiceUnavailable {
			return g.fallback(id, out)
		}
		return g.placeholder(id, out), nil

	default:
		return g.placeholder(id, out), nil
	}
}

// fallback accepts the body of a final 503 as a degraded value. A missing or
// malformed body breaks the contract and is returned as ErrConfigurationFault.
func (g *Gateway[T]) fallback(id string, out resilience.Outcome) (Result[T], error) {
	body := bytes.TrimSpace(out.Body)
	if len(body) == 0 {
		return Result[T]{}, fmt.Errorf("%w: %s %s: 503 without fallback body", ErrConfigurationFault, g.codec.kind, id)
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return Result[T]{}, fmt.Errorf("%w: %s %s: 503 fallback body is not a JSON object", ErrConfigurationFault, g.codec.kind, id)
	}
	for _, field := range g.codec.fallbackFields {
		if !gjson.GetBytes(body, field).Exists() {
			return Result[T]{}, fmt.Errorf("%w: %s %s: 503 fallback body lacks %q", ErrConfigurationFault, g.codec.kind, id, field)
		}
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return Result[T]{}, fmt.Errorf("%w: %s %s: decode fallback body: %v", ErrConfigurationFault, g.codec.kind, id, err)
	}

	g.log.WithField("id", id).Warn("serving 503 fallback payload")
	return Result[T]{Value: v, Source: SourceFallback, Cause: out.Cause()}, nil
}

func (g *Gateway[T]) placeholder(id string, out resilience.Outcome) Result[T] {
	kind := failureKind(out)
	g.log.WithField("id", id).
		WithField("failure", kind).
		WithError(out.Cause()).
		Warn("dependency unavailable, returning placeholder")
	return Result[T]{Value: g.codec.placeholder(kind), Source: SourcePlaceholder, Cause: out.Cause()}
}

// clientMessage extracts a human readable reason from a 400 body.
func clientMessage(out resilience.Outcome) string {
	if out.Message != "" {
		return out.Message
	}
	body := bytes.TrimSpace(out.Body)
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "detail", "title", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	if len(body) > 0 && len(body) <= 256 {
		return strings.TrimSpace(string(body))
	}
	return http.StatusText(out.StatusCode)
}
