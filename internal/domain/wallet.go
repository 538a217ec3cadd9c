// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// WalletType identifies which balance container a wallet holds.
type WalletType string

const (
	WalletTypeRial        WalletType = "RIAL"
	WalletTypeGold        WalletType = "GOLD"
	WalletTypeCoinFull    WalletType = "COIN_FULL"
	WalletTypeCoinHalf    WalletType = "COIN_HALF"
	WalletTypeCoinQuarter WalletType = "COIN_QUARTER"
)

// Valid reports whether t is one of the known wallet types.
func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeRial, WalletTypeGold, WalletTypeCoinFull, WalletTypeCoinHalf, WalletTypeCoinQuarter:
		return true
	}
	return false
}

// IsCoin reports whether the wallet holds minted coins.
func (t WalletType) IsCoin() bool {
	switch t {
	case WalletTypeCoinFull, WalletTypeCoinHalf, WalletTypeCoinQuarter:
		return true
	}
	return false
}

// Currency returns the display currency for the wallet type.
// Rial wallets hold IRR, gold wallets hold grams, coin wallets hold units.
func (t WalletType) Currency() string {
	switch t {
	case WalletTypeRial:
		return "IRR"
	case WalletTypeGold:
		return "GOLD_GRAM"
	default:
		return "COIN"
	}
}

// Wallet represents a per-user, per-type balance container.
// Balance is only ever mutated by the ledger poster inside a locked
// database transaction; it must never go negative.
type Wallet struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Type      WalletType      `db:"type" json:"type"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Currency  string          `db:"currency" json:"currency"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new Wallet instance with a zero balance.
func NewWallet(userID int64, walletType WalletType) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Type:      walletType,
		Balance:   decimal.Zero,
		Currency:  walletType.Currency(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
