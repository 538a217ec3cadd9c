// internal/repository/postgres/tradingmode_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"

	"github.com/jmoiron/sqlx"
)

// tradingModeRowID pins the singleton row.
const tradingModeRowID = 1

// TradingModeRepository implements repository.TradingModeRepository for PostgreSQL.
type TradingModeRepository struct{}

// NewTradingModeRepository creates a new TradingModeRepository.
func NewTradingModeRepository(db *sqlx.DB) repository.TradingModeRepository {
	return &TradingModeRepository{}
}

// GetMode retrieves the singleton row. A missing row reads as
// trading-enabled, so a fresh database does not block trading.
func (r *TradingModeRepository) GetMode(ctx context.Context, q repository.DBExecutor) (*domain.TradingMode, error) {
	var mode domain.TradingMode
	query := `SELECT id, trading_paused, message, updated_at FROM trading_mode WHERE id = $1`
	err := q.GetContext(ctx, &mode, query, tradingModeRowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &domain.TradingMode{ID: tradingModeRowID}, nil
		}
		return nil, fmt.Errorf("failed to get trading mode: %w", err)
	}
	return &mode, nil
}

// SetMode upserts the singleton row, last writer wins.
func (r *TradingModeRepository) SetMode(ctx context.Context, q repository.DBExecutor, paused bool, message string) (*domain.TradingMode, error) {
	mode := domain.TradingMode{
		ID:            tradingModeRowID,
		TradingPaused: paused,
		Message:       message,
		UpdatedAt:     time.Now().UTC(),
	}
	query := `INSERT INTO trading_mode (id, trading_paused, message, updated_at)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (id) DO UPDATE SET
                  trading_paused = EXCLUDED.trading_paused,
                  message = EXCLUDED.message,
                  updated_at = EXCLUDED.updated_at`
	if _, err := q.ExecContext(ctx, query, mode.ID, mode.TradingPaused, mode.Message, mode.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to set trading mode: %w", err)
	}
	return &mode, nil
}
