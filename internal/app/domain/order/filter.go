package order

import (
	"time"

	"github.com/google/uuid"
)

// Filter selects orders. Zero fields are ignored; set fields are combined with AND.
type Filter struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	// OrderDate matches the calendar day (UTC) of the order date.
	OrderDate time.Time
}

// ByOrderID matches one order.
func ByOrderID(id uuid.UUID) Filter { return Filter{OrderID: id} }

// ByUserID matches a user's orders.
func ByUserID(id uuid.UUID) Filter { return Filter{UserID: id} }

// ByProductID matches orders containing the product.
func ByProductID(id uuid.UUID) Filter { return Filter{ProductID: id} }

// ByOrderDate matches orders placed on the same calendar day.
func ByOrderDate(day time.Time) Filter { return Filter{OrderDate: day} }

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.OrderID == uuid.Nil && f.UserID == uuid.Nil && f.ProductID == uuid.Nil && f.OrderDate.IsZero()
}

// DayBounds returns the [start, end) UTC range of the OrderDate day.
func (f Filter) DayBounds() (time.Time, time.Time) {
	d := f.OrderDate.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Matches reports whether o satisfies the filter.
func (f Filter) Matches(o Order) bool {
	if f.OrderID != uuid.Nil && o.ID != f.OrderID {
		return false
	}
	if f.UserID != uuid.Nil && o.UserID != f.UserID {
		return false
	}
	if f.ProductID != uuid.Nil && !o.HasProduct(f.ProductID) {
		return false
	}
	if !f.OrderDate.IsZero() {
		start, end := f.DayBounds()
		at := o.OrderDate.UTC()
		if at.Before(start) || !at.Before(end) {
			return false
		}
	}
	return true
}
