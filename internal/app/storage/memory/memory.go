package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/storage"
)

// Store is an in-memory OrderStore. It is safe for concurrent use and is used for
// tests and when no database is configured.
type Store struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]order.Order
}

var _ storage.OrderStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{orders: make(map[uuid.UUID]order.Order)}
}

func (s *Store) AddOrder(_ context.Context, o order.Order) (order.Order, error) {
	o = o.Clone()
	storage.AssignIDs(&o)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return order.Order{}, fmt.Errorf("order %s already exists", o.ID)
	}
	s.orders[o.ID] = o
	return o.Clone(), nil
}

func (s *Store) UpdateOrder(_ context.Context, o order.Order) (order.Order, error) {
	o = o.Clone()
	storage.AssignIDs(&o)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return order.Order{}, storage.ErrNotFound
	}
	s.orders[o.ID] = o
	return o.Clone(), nil
}

func (s *Store) DeleteOrder(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) GetOrder(ctx context.Context, filter order.Filter) (order.Order, error) {
	list, err := s.ListOrders(ctx, filter)
	if err != nil {
		return order.Order{}, err
	}
	if len(list) == 0 {
		return order.Order{}, storage.ErrNotFound
	}
	return list[0], nil
}

func (s *Store) ListOrders(_ context.Context, filter order.Filter) ([]order.Order, error) {
	s.mu.RLock()
	result := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Matches(o) {
			result = append(result, o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.Before(result[j].OrderDate)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}
