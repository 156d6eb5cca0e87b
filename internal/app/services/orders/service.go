package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/core/service"
	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/storage"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

var (
	// ErrValidation marks a request rejected before any persistence.
	ErrValidation = errors.New("validation failed")
	// ErrOrderNotFound is returned when updating an order that does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when an order references an unknown product.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound is returned when an order references an unknown user.
	ErrUserNotFound = errors.New("user not found")
)

// Service manages orders and their enriched views.
type Service struct {
	store      storage.OrderStore
	aggregator *Aggregator
	validate   *validator.Validate
	log        *logger.Logger
}

// New constructs an orders service.
func New(store storage.OrderStore, users UserDirectory, products ProductCatalog, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{
		store:      store,
		aggregator: NewAggregator(users, products, log.Component("orders")),
		validate:   newValidator(),
		log:        log,
	}
}

// Descriptor advertises the service placement and capabilities.
func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{
		Name:   "orders",
		Domain: "orders",
		Layer:  service.LayerService,
	}.WithCapabilities("orders.read", "orders.write", "orders.enrich")
}

// Aggregator exposes the enrichment component.
func (s *Service) Aggregator() *Aggregator {
	return s.aggregator
}

// AddOrder validates, prices and stores a new order. The user and every product
// must exist; degraded lookups are accepted.
func (s *Service) AddOrder(ctx context.Context, req OrderAddRequest) (*order.Enriched, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	draft := req.ToOrder()
	storage.AssignIDs(&draft)
	draft.ComputeTotals()

	enriched, err := s.aggregator.Enrich(ctx, draft, RequireAll)
	if err != nil {
		return nil, err
	}

	created, err := s.store.AddOrder(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}
	s.log.WithField("order_id", created.ID).
		WithField("items", len(created.Items)).
		Info("order created")
	return &enriched, nil
}

// UpdateOrder validates, prices and replaces an existing order.
func (s *Service) UpdateOrder(ctx context.Context, req OrderUpdateRequest) (*order.Enriched, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.store.GetOrder(ctx, order.ByOrderID(req.OrderID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, req.OrderID)
		}
		return nil, err
	}

	draft := req.ToOrder()
	storage.AssignIDs(&draft)
	draft.ComputeTotals()

	enriched, err := s.aggregator.Enrich(ctx, draft, RequireAll)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.UpdateOrder(ctx, draft); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, req.OrderID)
		}
		return nil, fmt.Errorf("store order: %w", err)
	}
	s.log.WithField("order_id", draft.ID).Info("order updated")
	return &enriched, nil
}

// DeleteOrder removes the order if it exists and reports whether it did.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, fmt.Errorf("%w: orderID is required", ErrValidation)
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	s.log.WithField("order_id", id).Info("order deleted")
	return true, nil
}

// GetOrderByCondition returns the first matching order, or nil when none matches.
// Every product it references must still exist.
func (s *Service) GetOrderByCondition(ctx context.Context, filter order.Filter) (*order.Enriched, error) {
	o, err := s.store.GetOrder(ctx, filter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	enriched, err := s.aggregator.Enrich(ctx, o, RequireProducts)
	if err != nil {
		return nil, err
	}
	return &enriched, nil
}

// GetOrders returns every order, enriched best-effort: a failed user or product
// lookup degrades only that entry to a placeholder. A ConfigurationFault from any
// dependency fails the whole list, which HTTP reports as 502.
func (s *Service) GetOrders(ctx context.Context) ([]order.Enriched, error) {
	return s.GetOrdersByCondition(ctx, order.Filter{})
}

// GetOrdersByCondition returns the matching orders, enriched best-effort. Failure
// handling is the same as GetOrders.
func (s *Service) GetOrdersByCondition(ctx context.Context, filter order.Filter) ([]order.Enriched, error) {
	list, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator.EnrichAll(ctx, list)
}
