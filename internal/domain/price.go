// internal/domain/price.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is one snapshot from the external price feed. The feed
// ingestion job writes these; the engine only reads the active row per
// product and re-validates it at settlement time.
type PriceQuote struct {
	ID          int64           `db:"id" json:"id"`
	ProductType ProductType     `db:"product_type" json:"product_type"`
	BuyPrice    decimal.Decimal `db:"buy_price" json:"buy_price"`
	SellPrice   decimal.Decimal `db:"sell_price" json:"sell_price"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// PriceFor returns the unit price quoted to the given order side.
func (q *PriceQuote) PriceFor(side OrderType) decimal.Decimal {
	if side == OrderTypeBuy {
		return q.BuyPrice
	}
	return q.SellPrice
}
