package middleware

import (
	"net/http"
	"strings"
)

// Header values sent to an accepted browser origin.
const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, " + TraceHeader
	corsExposeHeaders = TraceHeader
	corsMaxAge        = "3600"
)

// CORSMiddleware lets the configured browser front ends call the orders API.
// Origins are compared case-insensitively; "*" accepts any origin.
type CORSMiddleware struct {
	origins  map[string]struct{}
	wildcard bool
}

// NewCORSMiddleware builds the middleware from ALLOWED_ORIGINS.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			m.wildcard = true
		default:
			m.origins[strings.ToLower(o)] = struct{}{}
		}
	}
	return m
}

func (m *CORSMiddleware) accepts(origin string) bool {
	if origin == "" {
		return false
	}
	if m.wildcard {
		return true
	}
	_, ok := m.origins[strings.ToLower(origin)]
	return ok
}

// Handler answers preflight requests itself and decorates everything else.
// The echoed origin varies per request, so responses carry Vary: Origin.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if m.accepts(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}

		if isPreflight(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}
