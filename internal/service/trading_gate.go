// internal/service/trading_gate.go
package service

import (
	"context"
	"fmt"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"
)

// TradingGate is the global circuit breaker. Every mutating trading
// operation calls CheckAllowed first, and again inside the settlement
// transaction so a pause landing between the two checks still wins.
type TradingGate interface {
	// CheckAllowed returns a *util.TradingPausedError when trading is
	// paused. Pass the enclosing transaction's executor to re-check the
	// flag under the same isolation as the wallet lock.
	CheckAllowed(ctx context.Context, q repository.DBExecutor) error
	// Mode returns the current trading mode.
	Mode(ctx context.Context) (*domain.TradingMode, error)
	// SetMode flips the breaker; admin only, last writer wins.
	SetMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error)
}

type tradingGate struct {
	dbExecutor repository.DBExecutor
	modeRepo   repository.TradingModeRepository
}

// NewTradingGate creates a TradingGate backed by the trading_mode table.
func NewTradingGate(dbExecutor repository.DBExecutor, modeRepo repository.TradingModeRepository) TradingGate {
	return &tradingGate{dbExecutor: dbExecutor, modeRepo: modeRepo}
}

func (g *tradingGate) CheckAllowed(ctx context.Context, q repository.DBExecutor) error {
	if q == nil {
		q = g.dbExecutor
	}
	mode, err := g.modeRepo.GetMode(ctx, q)
	if err != nil {
		return fmt.Errorf("trading gate: failed to read mode: %w", err)
	}
	if mode.TradingPaused {
		return &util.TradingPausedError{Message: mode.Message}
	}
	return nil
}

func (g *tradingGate) Mode(ctx context.Context) (*domain.TradingMode, error) {
	return g.modeRepo.GetMode(ctx, g.dbExecutor)
}

func (g *tradingGate) SetMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error) {
	return g.modeRepo.SetMode(ctx, g.dbExecutor, paused, message)
}
