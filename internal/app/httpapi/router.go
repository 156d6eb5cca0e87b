package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/orders_service/internal/app/core/service"
	"github.com/R3E-Network/orders_service/internal/app/metrics"
	"github.com/R3E-Network/orders_service/internal/middleware"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

// Health status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// DependencyHealth reports the resilience state of one remote dependency.
type DependencyHealth struct {
	CircuitState     string `json:"circuitState"`
	BulkheadInFlight int    `json:"bulkheadInFlight"`
	BulkheadQueued   int    `json:"bulkheadQueued"`
}

// Health is the body of GET /health.
type Health struct {
	Status       string                      `json:"status"`
	Components   []service.Descriptor        `json:"components,omitempty"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}

// Options configures the router.
type Options struct {
	Orders      OrdersService
	Health      func(ctx context.Context) Health
	Logger      *logger.Logger
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
}

// NewHandler returns the router exposing the orders REST API, /health and /metrics.
func NewHandler(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	httpLog := log.Component("http")

	r := mux.NewRouter()
	r.Use(middleware.NewTracingMiddleware(httpLog).Handler)
	r.Use(middleware.Recover(httpLog))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.NewCORSMiddleware(opts.CORSOrigins).Handler)
	}

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	h := &handler{orders: opts.Orders, health: opts.Health}
	api := r.NewRoute().Subrouter()
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Handler)
	}
	h.register(api)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	return metrics.InstrumentHandler(r)
}
