package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/orders_service/internal/httputil"
)

// Recover turns a handler panic into a 500 JSON error.
func Recover(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(logrus.Fields{
						"trace_id": TraceID(r.Context()),
						"path":     r.URL.Path,
						"panic":    fmt.Sprint(rec),
						"stack":    string(debug.Stack()),
					}).Error("handler panicked")
					httputil.WriteError(w, http.StatusInternalServerError, "InternalError", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
