package order

import (
	"time"

	"github.com/google/uuid"
)

// Item is one line of an order.
type Item struct {
	ID         uuid.UUID `json:"orderItemID"`
	ProductID  uuid.UUID `json:"productID"`
	UnitPrice  float64   `json:"unitPrice"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"totalPrice"`
}

// Order is a persisted order.
type Order struct {
	ID        uuid.UUID `json:"orderID"`
	UserID    uuid.UUID `json:"userID"`
	OrderDate time.Time `json:"orderDate"`
	TotalBill float64   `json:"totalBill"`
	Items     []Item    `json:"orderItems"`
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]Item(nil), o.Items...)
	return out
}

// ComputeTotals sets every item's TotalPrice to Quantity*UnitPrice and the order's
// TotalBill to their sum.
func (o *Order) ComputeTotals() {
	var bill float64
	for i := range o.Items {
		o.Items[i].TotalPrice = float64(o.Items[i].Quantity) * o.Items[i].UnitPrice
		bill += o.Items[i].TotalPrice
	}
	o.TotalBill = bill
}

// HasProduct reports whether any item references productID.
func (o Order) HasProduct(productID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
