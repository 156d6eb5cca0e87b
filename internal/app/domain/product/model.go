package product

import "github.com/google/uuid"

// Summary is the read-only snapshot of a product returned by the product catalog.
type Summary struct {
	ID        uuid.UUID `json:"productID"`
	Name      string    `json:"productName"`
	Category  string    `json:"category"`
	UnitPrice float64   `json:"unitPrice"`
	StockQty  int       `json:"quantityInStock"`
}
