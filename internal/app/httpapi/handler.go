package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/services/orders"
	"github.com/R3E-Network/orders_service/internal/clients"
	"github.com/R3E-Network/orders_service/internal/httputil"
)

// OrdersService is the subset of the orders service exposed over HTTP.
type OrdersService interface {
	AddOrder(ctx context.Context, req orders.OrderAddRequest) (*order.Enriched, error)
	UpdateOrder(ctx context.Context, req orders.OrderUpdateRequest) (*order.Enriched, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error)
	GetOrderByCondition(ctx context.Context, filter order.Filter) (*order.Enriched, error)
	GetOrders(ctx context.Context) ([]order.Enriched, error)
	GetOrdersByCondition(ctx context.Context, filter order.Filter) ([]order.Enriched, error)
}

// handler bundles HTTP endpoints for the orders service.
type handler struct {
	orders OrdersService
	health func(ctx context.Context) Health
}

func (h *handler) register(r *mux.Router) {
	api := r.PathPrefix("/api/orders").Subrouter()
	api.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("", h.addOrder).Methods(http.MethodPost)
	api.HandleFunc("/search/orderid/{orderID}", h.getByOrderID).Methods(http.MethodGet)
	api.HandleFunc("/search/productid/{productID}", h.listByProductID).Methods(http.MethodGet)
	api.HandleFunc("/search/orderDate/{orderDate}", h.listByOrderDate).Methods(http.MethodGet)
	api.HandleFunc("/search/userid/{userID}", h.listByUserID).Methods(http.MethodGet)
	api.HandleFunc("/{orderID}", h.updateOrder).Methods(http.MethodPut)
	api.HandleFunc("/{orderID}", h.deleteOrder).Methods(http.MethodDelete)

	r.HandleFunc("/health", h.healthz).Methods(http.MethodGet)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.GetOrders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(list))
}

func (h *handler) getByOrderID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	got, err := h.orders.GetOrderByCondition(r.Context(), order.ByOrderID(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if got == nil {
		httputil.WriteError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("order %s not found", id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, got)
}

func (h *handler) listByProductID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}
	h.listByFilter(w, r, order.ByProductID(id))
}

func (h *handler) listByUserID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	h.listByFilter(w, r, order.ByUserID(id))
}

func (h *handler) listByOrderDate(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["orderDate"]
	day, err := parseOrderDate(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "ValidationError", fmt.Sprintf("invalid orderDate %q", raw))
		return
	}
	h.listByFilter(w, r, order.ByOrderDate(day))
}

func (h *handler) listByFilter(w http.ResponseWriter, r *http.Request, filter order.Filter) {
	list, err := h.orders.GetOrdersByCondition(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(list))
}

func (h *handler) addOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.OrderAddRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	created, err := h.orders.AddOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/orders/search/orderid/"+created.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	var req orders.OrderUpdateRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	if req.OrderID != id {
		httputil.WriteError(w, http.StatusBadRequest, "ValidationError", "orderID in the path does not match the body")
		return
	}
	updated, err := h.orders.UpdateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	deleted, err := h.orders.DeleteOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("order %s not found", id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, true)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.WriteJSON(w, http.StatusOK, Health{Status: StatusOK})
		return
	}
	report := h.health(r.Context())
	status := http.StatusOK
	if report.Status == StatusDown {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "ValidationError", fmt.Sprintf("invalid %s %q", name, raw))
		return uuid.Nil, false
	}
	return id, true
}

var orderDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

func parseOrderDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range orderDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func nonNil(list []order.Enriched) []order.Enriched {
	if list == nil {
		return []order.Enriched{}
	}
	return list
}

// errorMapping pairs a sentinel error with its HTTP status and type tag.
type errorMapping struct {
	target  error
	status  int
	errType string
}

var errorMappings = []errorMapping{
	{orders.ErrValidation, http.StatusBadRequest, "ValidationError"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "NotFound"},
	{orders.ErrProductNotFound, http.StatusUnprocessableEntity, "ProductNotFound"},
	{orders.ErrUserNotFound, http.StatusUnprocessableEntity, "UserNotFound"},
}

func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			httputil.WriteError(w, m.status, m.errType, err.Error())
			return
		}
	}
	if errors.Is(err, clients.ErrConfigurationFault) {
		httputil.WriteError(w, http.StatusBadGateway, "DependencyContractViolation", err.Error())
		return
	}
	httputil.WriteError(w, http.StatusInternalServerError, "InternalError", err.Error())
}
