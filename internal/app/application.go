package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/R3E-Network/orders_service/internal/app/core/service"
	"github.com/R3E-Network/orders_service/internal/app/httpapi"
	"github.com/R3E-Network/orders_service/internal/app/metrics"
	"github.com/R3E-Network/orders_service/internal/app/services/orders"
	"github.com/R3E-Network/orders_service/internal/app/storage"
	"github.com/R3E-Network/orders_service/internal/app/storage/memory"
	"github.com/R3E-Network/orders_service/internal/app/system"
	"github.com/R3E-Network/orders_service/internal/cache"
	"github.com/R3E-Network/orders_service/internal/clients"
	"github.com/R3E-Network/orders_service/internal/config"
	"github.com/R3E-Network/orders_service/internal/httputil"
	"github.com/R3E-Network/orders_service/internal/middleware"
	"github.com/R3E-Network/orders_service/internal/resilience"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil fields default to the
// in-memory implementations.
type Stores struct {
	Orders storage.OrderStore
	Cache  cache.Store
	// Check reports whether the order database is reachable. Optional.
	Check func(ctx context.Context) error
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger
	handler http.Handler
	check   func(ctx context.Context) error

	Orders      *orders.Service
	Users       *clients.UsersGateway
	Products    *clients.ProductsGateway
	RateLimiter *middleware.RateLimiter
	Janitor     *Janitor
}

// New builds a fully initialised application from cfg and the provided stores.
func New(cfg *config.Config, stores Stores, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Orders == nil {
		log.Warn("no order database configured; orders are kept in memory")
		stores.Orders = memory.New()
	}
	if stores.Cache == nil {
		stores.Cache = cache.NewMemoryStore()
	}
	sharedCache := cache.Instrument(stores.Cache, metrics.Observer{})
	ttl := cache.EntryOptions{AbsoluteTTL: cfg.Cache.AbsoluteTTL, SlidingTTL: cfg.Cache.SlidingTTL}

	users := clients.NewUsersGateway(gatewayConfig("users", cfg.Users, sharedCache, ttl, log))
	products := clients.NewProductsGateway(gatewayConfig("products", cfg.Products, sharedCache, ttl, log))
	ordersSvc := orders.New(stores.Orders, users, products, log)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log.Component("ratelimit")).
			WithIdleTTL(cfg.RateLimit.IdleAfter)
	}

	a := &Application{
		manager:     system.NewManager(),
		log:         log,
		check:       stores.Check,
		Orders:      ordersSvc,
		Users:       users,
		Products:    products,
		RateLimiter: limiter,
		Janitor:     NewJanitor(log),
	}
	a.handler = httpapi.NewHandler(httpapi.Options{
		Orders:      ordersSvc,
		Health:      a.Health,
		Logger:      log,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	if err := a.scheduleMaintenance(cfg.Janitor, stores.Cache); err != nil {
		return nil, err
	}
	if err := a.manager.Register(a.Janitor); err != nil {
		return nil, fmt.Errorf("register janitor: %w", err)
	}
	return a, nil
}

func gatewayConfig(name string, dep config.DependencyConfig, store cache.Store, ttl cache.EntryOptions, log *logger.Logger) clients.GatewayConfig {
	return clients.GatewayConfig{
		Name:            name,
		Client:          httputil.NewClient(httputil.ClientConfig{BaseURL: dep.BaseURL, Timeout: dep.Timeout}),
		Cache:           store,
		CacheTTL:        ttl,
		Policy:          dep.Policy,
		Logger:          log,
		PipelineOptions: []resilience.PipelineOption{resilience.WithObserver(metrics.Observer{})},
	}
}

func (a *Application) scheduleMaintenance(cfg config.JanitorConfig, store cache.Store) error {
	if mem, ok := store.(*cache.MemoryStore); ok {
		if err := a.Janitor.Add("cache-sweep", cfg.CacheSweepSpec, func() {
			removed := mem.Sweep()
			metrics.RecordCacheSweep(removed)
			if removed > 0 {
				a.log.WithField("removed", removed).Debug("expired cache entries swept")
			}
		}); err != nil {
			return err
		}
	}
	if a.RateLimiter != nil {
		if err := a.Janitor.Add("limiter-sweep", cfg.LimiterSweepSpec, func() {
			a.RateLimiter.Cleanup()
		}); err != nil {
			return err
		}
	}
	return a.Janitor.Add("dependency-report", cfg.StatusReportSpec, a.reportDependencies)
}

// reportDependencies publishes bulkhead occupancy and logs dependencies whose
// circuit is not closed.
func (a *Application) reportDependencies() {
	for _, p := range a.pipelines() {
		metrics.RecordBulkhead(p.Name(), p.Bulkhead().InFlight())
		if state := p.Breaker().State(); state != resilience.CircuitClosed {
			a.log.WithField("dependency", p.Name()).
				WithField("circuit", state.String()).
				WithField("failures", p.Breaker().Failures()).
				Warn("dependency circuit not closed")
		}
	}
}

func (a *Application) pipelines() []*resilience.Pipeline {
	return []*resilience.Pipeline{a.Users.Pipeline(), a.Products.Pipeline()}
}

// Health summarizes the service and its dependencies. Any circuit that is not
// closed degrades the service; an unreachable database takes it down.
func (a *Application) Health(ctx context.Context) httpapi.Health {
	h := httpapi.Health{
		Status:       httpapi.StatusOK,
		Components:   []service.Descriptor{a.Orders.Descriptor()},
		Dependencies: make(map[string]httpapi.DependencyHealth),
	}
	for _, p := range a.pipelines() {
		state := p.Breaker().State()
		h.Components = append(h.Components, service.Descriptor{
			Name:   p.Name(),
			Domain: "orders",
			Layer:  service.LayerDependency,
		})
		h.Dependencies[p.Name()] = httpapi.DependencyHealth{
			CircuitState:     state.String(),
			BulkheadInFlight: p.Bulkhead().InFlight(),
			BulkheadQueued:   p.Bulkhead().Queued(),
		}
		if state != resilience.CircuitClosed {
			h.Status = httpapi.StatusDegraded
		}
	}
	if a.check != nil {
		if err := a.check(ctx); err != nil {
			a.log.WithError(err).Warn("order database health check failed")
			h.Status = httpapi.StatusDown
		}
	}
	return h
}

// Handler returns the HTTP handler serving the API.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(svc system.Service) error {
	return a.manager.Register(svc)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
