// Package testutil provides common testing utilities and fake remote services.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/product"
	"github.com/R3E-Network/orders_service/internal/app/domain/user"
)

// Response is a canned reply for one path.
type Response struct {
	Status int
	Body   string
}

// Remote is an in-process user directory and product catalog. Unknown ids get
// 404; paths registered with Reply get their canned response instead.
type Remote struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[uuid.UUID]user.Summary
	products map[uuid.UUID]product.Summary
	replies  map[string]Response
	calls    map[string]int
}

// NewRemote starts a fake remote closed at the end of the test.
func NewRemote(t testing.TB) *Remote {
	t.Helper()
	r := &Remote{
		users:    make(map[uuid.UUID]user.Summary),
		products: make(map[uuid.UUID]product.Summary),
		replies:  make(map[string]Response),
		calls:    make(map[string]int),
	}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Close)
	return r
}

// AddUser registers a user under /api/users/{id}.
func (r *Remote) AddUser(u user.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// AddProduct registers a product under /api/products/search/product-id/{id}.
func (r *Remote) AddProduct(p product.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// Reply makes path answer with status and body.
func (r *Remote) Reply(path string, status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[path] = Response{Status: status, Body: body}
}

// Calls returns how many requests path received.
func (r *Remote) Calls(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}

// UserPath is the directory path of a user.
func UserPath(id uuid.UUID) string {
	return "/api/users/" + id.String()
}

// ProductPath is the catalog path of a product.
func ProductPath(id uuid.UUID) string {
	return "/api/products/search/product-id/" + id.String()
}

func (r *Remote) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.calls[req.URL.Path]++
	reply, scripted := r.replies[req.URL.Path]
	payload := r.lookup(req.URL.Path)
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case scripted:
		w.WriteHeader(reply.Status)
		_, _ = w.Write([]byte(reply.Body))
	case payload != nil:
		_ = json.NewEncoder(w).Encode(payload)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (r *Remote) lookup(path string) any {
	for id, u := range r.users {
		if path == UserPath(id) {
			return u
		}
	}
	for id, p := range r.products {
		if path == ProductPath(id) {
			return p
		}
	}
	return nil
}
