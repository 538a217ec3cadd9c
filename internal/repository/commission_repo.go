// internal/repository/commission_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// CommissionRepository reads and writes the fee schedule. The engine
// only reads it; the order carries a frozen snapshot from creation time.
type CommissionRepository interface {
	// GetActiveRate retrieves the active rate for a product, or
	// util.ErrNoActiveRate when none is configured.
	GetActiveRate(ctx context.Context, q DBExecutor, productType domain.ProductType) (*domain.CommissionRate, error)
	// UpsertRate creates or replaces the rate for a product (admin only).
	UpsertRate(ctx context.Context, q DBExecutor, rate *domain.CommissionRate) error
}
