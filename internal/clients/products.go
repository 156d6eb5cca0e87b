package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/product"
)

// ProductKind is the cache key kind of products.
const ProductKind = "product"

// ProductsGateway fetches products from the product catalog.
type ProductsGateway struct {
	*Gateway[product.Summary]
}

// NewProductsGateway creates the product catalog gateway.
func NewProductsGateway(cfg GatewayConfig) *ProductsGateway {
	if cfg.Name == "" {
		cfg.Name = "products"
	}
	return &ProductsGateway{Gateway: newGateway(cfg, codec[product.Summary]{
		kind: ProductKind,
		path: func(id string) string {
			return "/api/products/search/product-id/" + url.PathEscape(id)
		},
		placeholder:    ProductPlaceholder,
		fallbackFields: []string{"productID", "productName"},
	})}
}

// GetProduct fetches a product.
func (g *ProductsGateway) GetProduct(ctx context.Context, id uuid.UUID) (Result[product.Summary], error) {
	if id == uuid.Nil {
		return Result[product.Summary]{}, fmt.Errorf("product id: %w: must not be empty", ErrInvalidInput)
	}
	return g.Fetch(ctx, id.String())
}

// ProductPlaceholder returns the degraded product for a failure kind.
func ProductPlaceholder(failure string) product.Summary {
	marker := Marker(failure)
	return product.Summary{
		ID:       uuid.Nil,
		Name:     marker,
		Category: marker,
	}
}
