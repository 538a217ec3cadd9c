// internal/domain/commission.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionRate is the admin-configured fee schedule for one product.
// Rates are percentages (1 means 1%); MinAmount/MaxAmount clamp the
// effective fee in Rial. A zero MaxAmount means no upper bound.
type CommissionRate struct {
	ID          int64           `db:"id" json:"id"`
	ProductType ProductType     `db:"product_type" json:"product_type"`
	BuyRate     decimal.Decimal `db:"buy_rate" json:"buy_rate"`
	SellRate    decimal.Decimal `db:"sell_rate" json:"sell_rate"`
	MinAmount   decimal.Decimal `db:"min_amount" json:"min_amount"`
	MaxAmount   decimal.Decimal `db:"max_amount" json:"max_amount"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// RateFor returns the percentage applied to the given order side.
func (r *CommissionRate) RateFor(side OrderType) decimal.Decimal {
	if side == OrderTypeBuy {
		return r.BuyRate
	}
	return r.SellRate
}

var oneHundred = decimal.NewFromInt(100)

// CalculateCommission computes the Rial fee for an order: the side's
// percentage of amount*price, clamped into [MinAmount, MaxAmount].
// The result is frozen onto the order at creation time.
func CalculateCommission(amount, price decimal.Decimal, rate *CommissionRate, side OrderType) decimal.Decimal {
	fee := amount.Mul(price).Mul(rate.RateFor(side)).Div(oneHundred)
	if fee.LessThan(rate.MinAmount) {
		fee = rate.MinAmount
	}
	if rate.MaxAmount.IsPositive() && fee.GreaterThan(rate.MaxAmount) {
		fee = rate.MaxAmount
	}
	return fee
}
