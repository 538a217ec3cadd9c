// internal/repository/price_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// PriceRepository reads the quotes written by the external price-feed
// ingestion job. The engine never writes this table.
type PriceRepository interface {
	// GetActivePrice retrieves the active quote for a product, or
	// util.ErrNoActivePrice when the product has no active quote.
	GetActivePrice(ctx context.Context, q DBExecutor, productType domain.ProductType) (*domain.PriceQuote, error)
}
