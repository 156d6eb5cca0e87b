package order

import (
	"time"

	"github.com/google/uuid"
)

// EnrichedItem is an Item overlaid with product catalog data.
type EnrichedItem struct {
	ID          uuid.UUID `json:"orderItemID"`
	ProductID   uuid.UUID `json:"productID"`
	UnitPrice   float64   `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	TotalPrice  float64   `json:"totalPrice"`
	ProductName string    `json:"productName"`
	Category    string    `json:"category"`
	// Degraded is set when the overlay came from a fallback or placeholder.
	Degraded bool `json:"degraded,omitempty"`
}

// Enriched is an Order overlaid with product data per item and user data per order.
type Enriched struct {
	ID           uuid.UUID      `json:"orderID"`
	UserID       uuid.UUID      `json:"userID"`
	OrderDate    time.Time      `json:"orderDate"`
	TotalBill    float64        `json:"totalBill"`
	Items        []EnrichedItem `json:"orderItems"`
	PersonName   string         `json:"userPersonName"`
	Email        string         `json:"email"`
	UserDegraded bool           `json:"userDegraded,omitempty"`
}

// NewEnriched copies the order fields into an Enriched value without overlays.
func NewEnriched(o Order) Enriched {
	items := make([]EnrichedItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = EnrichedItem{
			ID:         it.ID,
			ProductID:  it.ProductID,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		}
	}
	return Enriched{
		ID:        o.ID,
		UserID:    o.UserID,
		OrderDate: o.OrderDate,
		TotalBill: o.TotalBill,
		Items:     items,
	}
}
