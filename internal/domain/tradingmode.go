// internal/domain/tradingmode.go
package domain

import "time"

// TradingMode is the persisted circuit-breaker flag. A single row
// (id = 1) exists; when TradingPaused is set every mutating trading
// operation is rejected with the configured message.
type TradingMode struct {
	ID            int64     `db:"id" json:"id"`
	TradingPaused bool      `db:"trading_paused" json:"trading_paused"`
	Message       string    `db:"message" json:"message"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
