// internal/service/pricing.go
package service

import (
	"context"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
)

// PriceOracle supplies quote snapshots from the external price feed.
// The feed ingestion job itself is outside this engine; the store-backed
// implementation reads whatever the job last wrote. Quotes are read
// fresh per call, never cached across requests.
type PriceOracle interface {
	GetActivePrice(ctx context.Context, productType domain.ProductType) (*domain.PriceQuote, error)
}

type storePriceOracle struct {
	dbExecutor repository.DBExecutor
	priceRepo  repository.PriceRepository
}

// NewStorePriceOracle creates a PriceOracle backed by the prices table.
func NewStorePriceOracle(dbExecutor repository.DBExecutor, priceRepo repository.PriceRepository) PriceOracle {
	return &storePriceOracle{dbExecutor: dbExecutor, priceRepo: priceRepo}
}

func (o *storePriceOracle) GetActivePrice(ctx context.Context, productType domain.ProductType) (*domain.PriceQuote, error) {
	return o.priceRepo.GetActivePrice(ctx, o.dbExecutor, productType)
}
