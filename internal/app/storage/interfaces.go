package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
)

// ErrNotFound is returned when no order matches.
var ErrNotFound = errors.New("order not found")

// OrderStore persists orders. Items are stored with their order.
type OrderStore interface {
	// AddOrder stores a new order. Missing order and item ids are generated.
	AddOrder(ctx context.Context, o order.Order) (order.Order, error)
	// UpdateOrder replaces an existing order and its items.
	UpdateOrder(ctx context.Context, o order.Order) (order.Order, error)
	// DeleteOrder removes an order. It returns ErrNotFound when absent.
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	// GetOrder returns the first order matching filter.
	GetOrder(ctx context.Context, filter order.Filter) (order.Order, error)
	// ListOrders returns every order matching filter, oldest first.
	ListOrders(ctx context.Context, filter order.Filter) ([]order.Order, error)
}

// AssignIDs fills missing order and item identifiers.
func AssignIDs(o *order.Order) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
	}
}
