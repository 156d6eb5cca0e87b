package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/product"
	"github.com/R3E-Network/orders_service/internal/app/domain/user"
	"github.com/R3E-Network/orders_service/internal/clients"
)

type fakeDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.Summary
	calls int
}

func newFakeDirectory(users ...user.Summary) *fakeDirectory {
	d := &fakeDirectory{users: make(map[uuid.UUID]user.Summary)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (clients.Result[user.Summary], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	u, ok := d.users[id]
	if !ok {
		return clients.Result[user.Summary]{}, fmt.Errorf("user %s: %w", id, clients.ErrNotFound)
	}
	return clients.Result[user.Summary]{Value: u, Source: clients.SourceRemote}, nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]product.Summary
	errs     map[uuid.UUID]error
	degraded map[uuid.UUID]bool
}

func newFakeCatalog(products ...product.Summary) *fakeCatalog {
	c := &fakeCatalog{
		products: make(map[uuid.UUID]product.Summary),
		errs:     make(map[uuid.UUID]error),
		degraded: make(map[uuid.UUID]bool),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) placeholderFor(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded[id] = true
}

func (c *fakeCatalog) failWith(id uuid.UUID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[id] = err
}

func (c *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (clients.Result[product.Summary], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.errs[id]; ok {
		return clients.Result[product.Summary]{}, err
	}
	if c.degraded[id] {
		return clients.Result[product.Summary]{
			Value:  clients.ProductPlaceholder(clients.FailureCircuitOpen),
			Source: clients.SourcePlaceholder,
		}, nil
	}
	p, ok := c.products[id]
	if !ok {
		return clients.Result[product.Summary]{}, fmt.Errorf("product %s: %w", id, clients.ErrNotFound)
	}
	return clients.Result[product.Summary]{Value: p, Source: clients.SourceRemote}, nil
}
