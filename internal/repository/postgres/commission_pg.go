// internal/repository/postgres/commission_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

// CommissionRepository implements repository.CommissionRepository for PostgreSQL.
type CommissionRepository struct{}

// NewCommissionRepository creates a new CommissionRepository.
func NewCommissionRepository(db *sqlx.DB) repository.CommissionRepository {
	return &CommissionRepository{}
}

// GetActiveRate retrieves the active rate for a product.
func (r *CommissionRepository) GetActiveRate(ctx context.Context, q repository.DBExecutor, productType domain.ProductType) (*domain.CommissionRate, error) {
	var rate domain.CommissionRate
	query := `SELECT id, product_type, buy_rate, sell_rate, min_amount, max_amount, is_active, updated_at
              FROM commission_rates WHERE product_type = $1 AND is_active = TRUE`
	err := q.GetContext(ctx, &rate, query, productType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNoActiveRate
		}
		return nil, fmt.Errorf("failed to get commission rate for %s: %w", productType, err)
	}
	return &rate, nil
}

// UpsertRate creates or replaces the rate for a product.
func (r *CommissionRepository) UpsertRate(ctx context.Context, q repository.DBExecutor, rate *domain.CommissionRate) error {
	query := `INSERT INTO commission_rates (product_type, buy_rate, sell_rate, min_amount, max_amount, is_active, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (product_type) DO UPDATE SET
                  buy_rate = EXCLUDED.buy_rate,
                  sell_rate = EXCLUDED.sell_rate,
                  min_amount = EXCLUDED.min_amount,
                  max_amount = EXCLUDED.max_amount,
                  is_active = EXCLUDED.is_active,
                  updated_at = EXCLUDED.updated_at
              RETURNING id`
	rate.UpdatedAt = time.Now().UTC()
	err := q.QueryRowContext(ctx, query,
		rate.ProductType, rate.BuyRate, rate.SellRate, rate.MinAmount, rate.MaxAmount,
		rate.IsActive, rate.UpdatedAt,
	).Scan(&rate.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert commission rate for %s: %w", rate.ProductType, err)
	}
	return nil
}
