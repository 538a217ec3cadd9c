// internal/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType is the side of an order.
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// Valid reports whether t is a known order side.
func (t OrderType) Valid() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

// ProductType identifies a tradable product on the platform.
type ProductType string

const (
	ProductGold18K            ProductType = "GOLD_18K"
	ProductCoinBahar86        ProductType = "COIN_BAHAR_86"
	ProductCoinBahar86Half    ProductType = "COIN_BAHAR_86_HALF"
	ProductCoinBahar86Quarter ProductType = "COIN_BAHAR_86_QUARTER"
)

// Valid reports whether p is a known product.
func (p ProductType) Valid() bool {
	switch p {
	case ProductGold18K, ProductCoinBahar86, ProductCoinBahar86Half, ProductCoinBahar86Quarter:
		return true
	}
	return false
}

// WalletTypeForProduct maps a product to the wallet that holds it.
func WalletTypeForProduct(p ProductType) WalletType {
	switch p {
	case ProductGold18K:
		return WalletTypeGold
	case ProductCoinBahar86:
		return WalletTypeCoinFull
	case ProductCoinBahar86Half:
		return WalletTypeCoinHalf
	case ProductCoinBahar86Quarter:
		return WalletTypeCoinQuarter
	}
	return ""
}

// ProductForCoinWallet is the inverse mapping used by manual coin charges,
// where the admin names a coin wallet rather than a product.
func ProductForCoinWallet(t WalletType) (ProductType, bool) {
	switch t {
	case WalletTypeCoinFull:
		return ProductCoinBahar86, true
	case WalletTypeCoinHalf:
		return ProductCoinBahar86Half, true
	case WalletTypeCoinQuarter:
		return ProductCoinBahar86Quarter, true
	}
	return "", false
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "PENDING"
	OrderStatusCompleted          OrderStatus = "COMPLETED"
	OrderStatusCancelled          OrderStatus = "CANCELLED"
	OrderStatusFailed             OrderStatus = "FAILED"
	OrderStatusExpired            OrderStatus = "EXPIRED"
	OrderStatusRejected           OrderStatus = "REJECTED"
	OrderStatusRejectedPriceMoved OrderStatus = "REJECTED_PRICE_CHANGE"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed,
		OrderStatusExpired, OrderStatusRejected, OrderStatusRejectedPriceMoved:
		return true
	}
	return false
}

// Terminal reports whether s is an absorbing state. Every status other
// than PENDING is terminal; no transition out of a terminal state exists.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusPending
}

// RequiresReason reports whether transitioning into s needs a non-empty
// status reason. Every terminal state except COMPLETED records why the
// order did not settle.
func (s OrderStatus) RequiresReason() bool {
	return s.Terminal() && s != OrderStatusCompleted
}

// Order is a priced quote accepted by a user. Price, total price,
// commission and commission rate are locked at creation and never
// recomputed; rate-table changes do not touch existing orders.
type Order struct {
	ID             int64           `db:"id" json:"id"`
	ReferenceID    string          `db:"reference_id" json:"reference_id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Type           OrderType       `db:"type" json:"type"`
	ProductType    ProductType     `db:"product_type" json:"product_type"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Price          decimal.Decimal `db:"price" json:"price"`
	TotalPrice     decimal.Decimal `db:"total_price" json:"total_price"`
	Commission     decimal.Decimal `db:"commission" json:"commission"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	Status         OrderStatus     `db:"status" json:"status"`
	PriceLockedAt  time.Time       `db:"price_locked_at" json:"price_locked_at"`
	ExpiresAt      time.Time       `db:"expires_at" json:"expires_at"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at"`
	StatusReason   *string         `db:"status_reason" json:"status_reason"`
	AdminNotes     *string         `db:"admin_notes" json:"admin_notes"`
	IsAutomatic    bool            `db:"is_automatic" json:"is_automatic"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOrder creates a PENDING order with the quote locked in. The quote
// stays valid until priceLockedAt + quoteTTL.
func NewOrder(userID int64, side OrderType, product ProductType, amount, price, commission, commissionRate decimal.Decimal, quoteTTL time.Duration) *Order {
	now := time.Now().UTC()
	return &Order{
		ReferenceID:    uuid.NewString(),
		UserID:         userID,
		Type:           side,
		ProductType:    product,
		Amount:         amount,
		Price:          price,
		TotalPrice:     amount.Mul(price),
		Commission:     commission,
		CommissionRate: commissionRate,
		Status:         OrderStatusPending,
		PriceLockedAt:  now,
		ExpiresAt:      now.Add(quoteTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewManualCoinOrder creates the record-keeping order behind a manual
// admin coin charge. It is the one path where an order is born terminal:
// status COMPLETED, zero commission, priced at the current buy quote
// purely for the books. The buyer's own funds are never checked.
func NewManualCoinOrder(userID int64, product ProductType, amount, buyPrice decimal.Decimal, adminNotes string) *Order {
	now := time.Now().UTC()
	o := &Order{
		ReferenceID:    uuid.NewString(),
		UserID:         userID,
		Type:           OrderTypeBuy,
		ProductType:    product,
		Amount:         amount,
		Price:          buyPrice,
		TotalPrice:     amount.Mul(buyPrice),
		Commission:     decimal.Zero,
		CommissionRate: decimal.Zero,
		Status:         OrderStatusCompleted,
		PriceLockedAt:  now,
		ExpiresAt:      now,
		CompletedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if adminNotes != "" {
		o.AdminNotes = &adminNotes
	}
	return o
}

// Expired reports whether the quote validity window has passed at the
// given instant. Expiry is evaluated lazily; a stale PENDING row is
// treated as expired wherever it is read.
func (o *Order) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// SourceWalletType returns the wallet debited when the order settles.
func (o *Order) SourceWalletType() WalletType {
	if o.Type == OrderTypeBuy {
		return WalletTypeRial
	}
	return WalletTypeForProduct(o.ProductType)
}

// DestinationWalletType returns the wallet credited when the order settles.
func (o *Order) DestinationWalletType() WalletType {
	if o.Type == OrderTypeBuy {
		return WalletTypeForProduct(o.ProductType)
	}
	return WalletTypeRial
}

// RequiredBalance is the minimum source-wallet balance for settlement:
// the full Rial total for a BUY, the metal/coin amount for a SELL.
func (o *Order) RequiredBalance() decimal.Decimal {
	if o.Type == OrderTypeBuy {
		return o.TotalPrice
	}
	return o.Amount
}
