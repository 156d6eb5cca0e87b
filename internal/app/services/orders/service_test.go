package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/domain/product"
	"github.com/R3E-Network/orders_service/internal/app/domain/user"
	"github.com/R3E-Network/orders_service/internal/app/storage/memory"
	"github.com/R3E-Network/orders_service/internal/clients"
	"github.com/R3E-Network/orders_service/pkg/logger"
)

type fixture struct {
	svc      *Service
	store    *memory.Store
	users    *fakeDirectory
	catalog  *fakeCatalog
	user     user.Summary
	widget   product.Summary
	gadget   product.Summary
	orderDay time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		user:     user.Summary{ID: uuid.New(), DisplayName: "Grace Hopper", Email: "grace@example.com", GenderTag: "Female"},
		widget:   product.Summary{ID: uuid.New(), Name: "Widget", Category: "Tools", UnitPrice: 2.5, StockQty: 10},
		gadget:   product.Summary{ID: uuid.New(), Name: "Gadget", Category: "Electronics", UnitPrice: 10, StockQty: 3},
		orderDay: time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC),
	}
	f.users = newFakeDirectory(f.user)
	f.catalog = newFakeCatalog(f.widget, f.gadget)
	f.svc = New(f.store, f.users, f.catalog, logger.NewNop())
	return f
}

func (f *fixture) addRequest() OrderAddRequest {
	return OrderAddRequest{
		UserID:    f.user.ID,
		OrderDate: f.orderDay,
		OrderItems: []OrderItemRequest{
			{ProductID: f.widget.ID, UnitPrice: 2.5, Quantity: 4},
			{ProductID: f.gadget.ID, UnitPrice: 10, Quantity: 1},
		},
	}
}

func TestAddOrder_ComputesTotalsAndEnriches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, 20.0, got.TotalBill)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 10.0, got.Items[0].TotalPrice)
	assert.Equal(t, "Widget", got.Items[0].ProductName)
	assert.Equal(t, "Electronics", got.Items[1].Category)
	assert.Equal(t, "Grace Hopper", got.PersonName)
	assert.Equal(t, "grace@example.com", got.Email)

	stored, err := f.store.GetOrder(ctx, order.ByOrderID(got.ID))
	require.NoError(t, err)
	assert.Equal(t, 20.0, stored.TotalBill)
	assert.Equal(t, got.Items[0].ID, stored.Items[0].ID)
}

func TestAddOrder_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(*OrderAddRequest)
		message string
	}{
		{name: "missing user", mutate: func(r *OrderAddRequest) { r.UserID = uuid.Nil }, message: "userID is required"},
		{name: "missing date", mutate: func(r *OrderAddRequest) { r.OrderDate = time.Time{} }, message: "orderDate is required"},
		{name: "no items", mutate: func(r *OrderAddRequest) { r.OrderItems = nil }, message: "orderItems is required"},
		{name: "empty items", mutate: func(r *OrderAddRequest) { r.OrderItems = []OrderItemRequest{} }, message: "orderItems must contain at least 1 entry"},
		{name: "zero quantity", mutate: func(r *OrderAddRequest) { r.OrderItems[0].Quantity = 0 }, message: "orderItems[0].quantity must be greater than 0"},
		{name: "missing product", mutate: func(r *OrderAddRequest) { r.OrderItems[1].ProductID = uuid.Nil }, message: "orderItems[1].productID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.addRequest()
			tt.mutate(&req)

			_, err := f.svc.AddOrder(context.Background(), req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	all, _ := f.store.ListOrders(context.Background(), order.Filter{})
	assert.Empty(t, all)
}

func TestAddOrder_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.addRequest()
	req.OrderItems[1].ProductID = uuid.New()
	_, err := f.svc.AddOrder(ctx, req)
	assert.ErrorIs(t, err, ErrProductNotFound)

	req = f.addRequest()
	req.UserID = uuid.New()
	_, err = f.svc.AddOrder(ctx, req)
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, _ := f.store.ListOrders(ctx, order.Filter{})
	assert.Empty(t, all, "nothing is stored for invalid references")
}

func TestAddOrder_AcceptsPlaceholderProduct(t *testing.T) {
	f := newFixture(t)
	f.catalog.placeholderFor(f.gadget.ID)

	got, err := f.svc.AddOrder(context.Background(), f.addRequest())
	require.NoError(t, err)
	assert.True(t, got.Items[1].Degraded)
	assert.Equal(t, "Temporarily Unavailable (circuit open)", got.Items[1].ProductName)
	assert.False(t, got.Items[0].Degraded)
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrder(ctx, OrderUpdateRequest{
		OrderID:    created.ID,
		UserID:     f.user.ID,
		OrderDate:  f.orderDay,
		OrderItems: []OrderItemRequest{{ProductID: f.gadget.ID, UnitPrice: 10, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 30.0, updated.TotalBill)

	_, err = f.svc.UpdateOrder(ctx, OrderUpdateRequest{
		OrderID:    uuid.New(),
		UserID:     f.user.ID,
		OrderDate:  f.orderDay,
		OrderItems: []OrderItemRequest{{ProductID: f.gadget.ID, UnitPrice: 10, Quantity: 3}},
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder_OnlyWhenPresent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	deleted, err := f.svc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.svc.DeleteOrder(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOrderByCondition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	none, err := f.svc.GetOrderByCondition(ctx, order.ByOrderID(uuid.New()))
	require.NoError(t, err)
	assert.Nil(t, none)

	created, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	got, err := f.svc.GetOrderByCondition(ctx, order.ByProductID(f.widget.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	f.catalog.failWith(f.gadget.ID, fmt.Errorf("product %s: %w", f.gadget.ID, clients.ErrNotFound))
	_, err = f.svc.GetOrderByCondition(ctx, order.ByOrderID(created.ID))
	assert.ErrorIs(t, err, ErrProductNotFound, "single-order read requires existing products")

	list, err := f.svc.GetOrdersByCondition(ctx, order.ByUserID(f.user.ID))
	require.NoError(t, err, "list reads absorb missing products")
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Items[1].ProductName)
	assert.Equal(t, "Widget", list[0].Items[0].ProductName)
}

func TestGetOrders_UserMissingIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	delete(f.users.users, f.user.ID)

	list, err := f.svc.GetOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].PersonName)

	one, err := f.svc.GetOrderByCondition(ctx, order.ByUserID(f.user.ID))
	require.NoError(t, err)
	assert.Empty(t, one.PersonName)
}

func TestGetOrders_ConfigurationFaultIsReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddOrder(ctx, f.addRequest())
	require.NoError(t, err)

	f.catalog.failWith(f.widget.ID, fmt.Errorf("%w: 503 without fallback body", clients.ErrConfigurationFault))

	_, err = f.svc.GetOrders(ctx)
	assert.True(t, errors.Is(err, clients.ErrConfigurationFault))
}

func TestDescriptor(t *testing.T) {
	f := newFixture(t)
	d := f.svc.Descriptor()
	assert.Equal(t, "orders", d.Name)
	assert.Contains(t, d.Capabilities, "orders.enrich")
}
