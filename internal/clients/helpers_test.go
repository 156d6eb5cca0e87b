package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/R3E-Network/orders_service/internal/cache"
	"github.com/R3E-Network/orders_service/internal/httputil"
	"github.com/R3E-Network/orders_service/internal/resilience"
)

// remote is an httptest server that counts requests.
type remote struct {
	*httptest.Server
	calls atomic.Int64
}

func newRemote(t *testing.T, handler http.HandlerFunc) *remote {
	t.Helper()
	r := &remote{}
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.calls.Add(1)
		handler(w, req)
	}))
	t.Cleanup(r.Close)
	return r
}

func (r *remote) Calls() int {
	return int(r.calls.Load())
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testPolicy(attempts int) resilience.PolicyConfig {
	return resilience.PolicyConfig{
		Retry:          resilience.RetryConfig{MaxAttempts: attempts, BaseDelay: time.Second},
		CircuitBreaker: resilience.CircuitBreakerConfig{FailureThreshold: 3, BreakDuration: 2 * time.Minute},
		Timeout:        time.Second,
		Bulkhead:       resilience.BulkheadConfig{MaxConcurrent: 4, MaxQueued: 4},
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func gatewayConfig(r *remote, store cache.Store, policy resilience.PolicyConfig) GatewayConfig {
	return GatewayConfig{
		Client:          httputil.NewClientWithHTTP(r.URL, r.Client()),
		Cache:           store,
		Policy:          policy,
		PipelineOptions: []resilience.PipelineOption{resilience.WithPipelineSleep(noSleep)},
	}
}
