package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/domain/product"
	"github.com/R3E-Network/orders_service/internal/app/domain/user"
	"github.com/R3E-Network/orders_service/internal/clients"
)

// UserDirectory resolves users. Implemented by clients.UsersGateway.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (clients.Result[user.Summary], error)
}

// ProductCatalog resolves products. Implemented by clients.ProductsGateway.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (clients.Result[product.Summary], error)
}

// Mode selects how lookup errors are treated during enrichment.
type Mode int

const (
	// BestEffort absorbs not-found and invalid-input lookups; the overlay stays empty.
	BestEffort Mode = iota
	// RequireProducts fails when a referenced product does not exist.
	RequireProducts
	// RequireAll fails when the user or a referenced product does not exist.
	RequireAll
)

// Aggregator overlays orders with product and user data. Configuration faults
// are returned in every mode.
type Aggregator struct {
	users    UserDirectory
	products ProductCatalog
	log      *logrus.Entry
	// maxConcurrency bounds concurrent enrichment of orders in EnrichAll.
	maxConcurrency int
}

// NewAggregator creates an aggregator.
func NewAggregator(users UserDirectory, products ProductCatalog, log *logrus.Entry) *Aggregator {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Aggregator{users: users, products: products, log: log, maxConcurrency: 16}
}

// Enrich builds the enriched view of o. Items are overlaid concurrently, then the
// user. o is not modified.
func (a *Aggregator) Enrich(ctx context.Context, o order.Order, mode Mode) (order.Enriched, error) {
	e := order.NewEnriched(o)

	errs := make([]error, len(e.Items))
	iter.ForEachIdx(e.Items, func(i int, item *order.EnrichedItem) {
		errs[i] = a.overlayProduct(ctx, item, mode)
	})
	if err := errors.Join(errs...); err != nil {
		return order.Enriched{}, err
	}

	if err := a.overlayUser(ctx, &e, mode); err != nil {
		return order.Enriched{}, err
	}
	return e, nil
}

// EnrichAll enriches every order best-effort. Orders are enriched concurrently and
// returned in input order. A configuration fault on any order fails the call.
func (a *Aggregator) EnrichAll(ctx context.Context, orders []order.Order) ([]order.Enriched, error) {
	mapper := iter.Mapper[order.Order, enrichResult]{MaxGoroutines: a.maxConcurrency}
	results := mapper.Map(orders, func(o *order.Order) enrichResult {
		e, err := a.Enrich(ctx, *o, BestEffort)
		return enrichResult{order: e, err: err}
	})

	out := make([]order.Enriched, len(results))
	var errs []error
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", orders[i].ID, r.err))
			continue
		}
		out[i] = r.order
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

type enrichResult struct {
	order order.Enriched
	err   error
}

func (a *Aggregator) overlayProduct(ctx context.Context, item *order.EnrichedItem, mode Mode) error {
	res, err := a.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		return a.lookupError(err, mode >= RequireProducts, ErrProductNotFound, "product", item.ProductID)
	}
	if res.Degraded() {
		a.log.WithField("product_id", item.ProductID).
			WithField("source", res.Source.String()).
			Warn("using degraded product data")
	}
	item.ProductName = res.Value.Name
	item.Category = res.Value.Category
	item.Degraded = res.Degraded()
	return nil
}

func (a *Aggregator) overlayUser(ctx context.Context, e *order.Enriched, mode Mode) error {
	res, err := a.users.GetUser(ctx, e.UserID)
	if err != nil {
		return a.lookupError(err, mode == RequireAll, ErrUserNotFound, "user", e.UserID)
	}
	if res.Degraded() {
		a.log.WithField("user_id", e.UserID).
			WithField("source", res.Source.String()).
			Warn("using degraded user data")
	}
	e.PersonName = res.Value.DisplayName
	e.Email = res.Value.Email
	e.UserDegraded = res.Degraded()
	return nil
}

// lookupError decides whether a gateway error aborts enrichment.
func (a *Aggregator) lookupError(err error, required bool, notFound error, kind string, id uuid.UUID) error {
	switch {
	case errors.Is(err, clients.ErrConfigurationFault):
		return err
	case required && errors.Is(err, clients.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, id)
	case required && errors.Is(err, clients.ErrInvalidInput):
		return fmt.Errorf("%w: %s %s rejected: %v", ErrValidation, kind, id, err)
	case required:
		return err
	}
	a.log.WithError(err).WithField(kind+"_id", id).Info("enrichment lookup skipped")
	return nil
}
