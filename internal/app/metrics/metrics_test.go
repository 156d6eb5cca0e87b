package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/R3E-Network/orders_service/internal/resilience"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"/":                                    "/",
		"/health":                              "/health",
		"/api/orders":                          "/api/orders",
		"/api/orders/3f1c":                     "/api/orders/:id",
		"/api/orders/search/orderid/3f1c":      "/api/orders/search/orderid",
		"/api/orders/search/orderDate/2024-01": "/api/orders/search/orderdate",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestObserverRecordsPipelineEvents(t *testing.T) {
	o := Observer{}

	o.StateChanged("metrics-test", resilience.CircuitClosed, resilience.CircuitOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(breakerState.WithLabelValues("metrics-test")))

	before := testutil.ToFloat64(dependencyRejections.WithLabelValues("metrics-test", "circuit_open"))
	o.Rejected("metrics-test", fmt.Errorf("products: %w", resilience.ErrCircuitOpen))
	assert.Equal(t, before+1, testutil.ToFloat64(dependencyRejections.WithLabelValues("metrics-test", "circuit_open")))

	o.Finished("metrics-test", resilience.NotFound(), 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(dependencyCalls.WithLabelValues("metrics-test", "not_found")))

	o.CacheLookup("metrics-kind", true)
	o.CacheLookup("metrics-kind", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheLookups.WithLabelValues("metrics-kind", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheLookups.WithLabelValues("metrics-kind", "miss")))
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "bulkhead_full", rejectionReason(resilience.ErrBulkheadFull))
	assert.Equal(t, "other", rejectionReason(errors.New("boom")))
	assert.Equal(t, "unknown", rejectionReason(nil))
}

func TestInstrumentHandlerAndExport(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/:id", "418")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "orders_service_http_requests_total"))
}
