package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/R3E-Network/orders_service/internal/resilience"
)

const namespace = "orders_service"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	dependencyCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "calls_total",
			Help:      "Remote dependency calls by final outcome.",
		},
		[]string{"dependency", "outcome"},
	)

	dependencyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "call_duration_seconds",
			Help:      "Duration of remote dependency calls including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"dependency"},
	)

	dependencyRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "retries_total",
			Help:      "Retries scheduled after transient failures.",
		},
		[]string{"dependency"},
	)

	dependencyRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "rejections_total",
			Help:      "Calls short-circuited by the circuit breaker or bulkhead.",
		},
		[]string{"dependency", "reason"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "circuit_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"dependency"},
	)

	bulkheadInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "bulkhead_inflight",
			Help:      "Calls currently holding a bulkhead slot.",
		},
		[]string{"dependency"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by entity kind and result.",
		},
		[]string{"kind", "result"},
	)

	cacheSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "swept_entries_total",
			Help:      "Expired entries removed by the cache janitor.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		dependencyCalls,
		dependencyDuration,
		dependencyRetries,
		dependencyRejections,
		breakerState,
		bulkheadInFlight,
		cacheLookups,
		cacheSwept,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordCacheSweep records entries removed by a janitor pass.
func RecordCacheSweep(removed int) {
	if removed > 0 {
		cacheSwept.Add(float64(removed))
	}
}

// RecordBulkhead publishes the current bulkhead occupancy of a dependency.
func RecordBulkhead(dependency string, inFlight int) {
	bulkheadInFlight.WithLabelValues(dependency).Set(float64(inFlight))
}

// Observer feeds pipeline events and cache lookups into the registry. It
// implements resilience.Observer and cache.Recorder.
type Observer struct{}

var _ resilience.Observer = Observer{}

func (Observer) StateChanged(dep string, _, to resilience.CircuitState) {
	breakerState.WithLabelValues(dep).Set(float64(to))
}

func (Observer) Retrying(dep string, _ int, _ time.Duration, _ resilience.Outcome) {
	dependencyRetries.WithLabelValues(dep).Inc()
}

func (Observer) Rejected(dep string, err error) {
	dependencyRejections.WithLabelValues(dep, rejectionReason(err)).Inc()
}

func (Observer) Finished(dep string, out resilience.Outcome, elapsed time.Duration) {
	dependencyCalls.WithLabelValues(dep, out.Kind.String()).Inc()
	dependencyDuration.WithLabelValues(dep).Observe(elapsed.Seconds())
}

func (Observer) CacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

func rejectionReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrBulkheadFull):
		return "bulkhead_full"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses identifiers so label cardinality stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "orders" {
		return "/" + parts[0]
	}
	switch {
	case len(parts) == 2:
		return "/api/orders"
	case len(parts) >= 4 && parts[2] == "search":
		return "/api/orders/search/" + strings.ToLower(parts[3])
	default:
		return "/api/orders/:id"
	}
}
