package orders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
)

// OrderItemRequest is one requested order line.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productID" validate:"required"`
	UnitPrice float64   `json:"unitPrice" validate:"gt=0"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// OrderAddRequest creates an order.
type OrderAddRequest struct {
	UserID     uuid.UUID          `json:"userID" validate:"required"`
	OrderDate  time.Time          `json:"orderDate" validate:"required"`
	OrderItems []OrderItemRequest `json:"orderItems" validate:"required,min=1,dive"`
}

// OrderUpdateRequest replaces an existing order.
type OrderUpdateRequest struct {
	OrderID    uuid.UUID          `json:"orderID" validate:"required"`
	UserID     uuid.UUID          `json:"userID" validate:"required"`
	OrderDate  time.Time          `json:"orderDate" validate:"required"`
	OrderItems []OrderItemRequest `json:"orderItems" validate:"required,min=1,dive"`
}

// ToOrder converts the request into an order without totals.
func (r OrderAddRequest) ToOrder() order.Order {
	return order.Order{
		UserID:    r.UserID,
		OrderDate: r.OrderDate.UTC(),
		Items:     toItems(r.OrderItems),
	}
}

// ToOrder converts the request into an order without totals.
func (r OrderUpdateRequest) ToOrder() order.Order {
	return order.Order{
		ID:        r.OrderID,
		UserID:    r.UserID,
		OrderDate: r.OrderDate.UTC(),
		Items:     toItems(r.OrderItems),
	}
}

func toItems(reqs []OrderItemRequest) []order.Item {
	items := make([]order.Item, len(reqs))
	for i, r := range reqs {
		items[i] = order.Item{ProductID: r.ProductID, UnitPrice: r.UnitPrice, Quantity: r.Quantity}
	}
	return items
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError flattens validator errors into one ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must contain at least %s entry", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
