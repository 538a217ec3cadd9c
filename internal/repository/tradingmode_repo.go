// internal/repository/tradingmode_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// TradingModeRepository reads and writes the singleton circuit-breaker
// row. Reads accept any DBExecutor so the flag can be re-checked inside
// the same transaction that holds the wallet lock.
type TradingModeRepository interface {
	// GetMode retrieves the singleton trading mode row.
	GetMode(ctx context.Context, q DBExecutor) (*domain.TradingMode, error)
	// SetMode upserts the singleton row with last-writer-wins semantics.
	SetMode(ctx context.Context, q DBExecutor, paused bool, message string) (*domain.TradingMode, error)
}
