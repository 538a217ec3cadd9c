// internal/repository/postgres/price_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

// PriceRepository implements repository.PriceRepository for PostgreSQL.
// The prices table is written by the external feed ingestion job; this
// repository only reads the latest active quote per product.
type PriceRepository struct{}

// NewPriceRepository creates a new PriceRepository.
func NewPriceRepository(db *sqlx.DB) repository.PriceRepository {
	return &PriceRepository{}
}

// GetActivePrice retrieves the most recent active quote for a product.
func (r *PriceRepository) GetActivePrice(ctx context.Context, q repository.DBExecutor, productType domain.ProductType) (*domain.PriceQuote, error) {
	var quote domain.PriceQuote
	query := `SELECT id, product_type, buy_price, sell_price, is_active, created_at
              FROM prices WHERE product_type = $1 AND is_active = TRUE
              ORDER BY created_at DESC LIMIT 1`
	err := q.GetContext(ctx, &quote, query, productType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNoActivePrice
		}
		return nil, fmt.Errorf("failed to get active price for %s: %w", productType, err)
	}
	return &quote, nil
}
