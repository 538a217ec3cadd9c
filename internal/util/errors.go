// internal/util/errors.go
package util

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common application-specific errors.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("operation not permitted")
	ErrUserNotFound       = errors.New("user not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoActivePrice      = errors.New("no active price for product")
	ErrNoActiveRate       = errors.New("no active commission rate for product")
	ErrDuplicateReference = errors.New("duplicate reference id")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderExpired       = errors.New("order quote has expired")
	ErrSameWalletTransfer = errors.New("cannot transfer to the same wallet")
	ErrStoreUnavailable   = errors.New("datastore unavailable")
	ErrTimeout            = errors.New("operation timed out")
)

// IsError reports whether err wraps target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// TradingPausedError rejects a mutating operation while the global
// circuit breaker is on. Message is the admin-configured text shown to
// the user.
type TradingPausedError struct {
	Message string
}

func (e *TradingPausedError) Error() string {
	if e.Message == "" {
		return "trading is paused"
	}
	return fmt.Sprintf("trading is paused: %s", e.Message)
}

// InsufficientBalanceError carries the shortage detail for a settlement
// that was refused before touching any balance.
type InsufficientBalanceError struct {
	WalletType string
	Current    decimal.Decimal
	Required   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: have %s, need %s (short %s)",
		e.WalletType, e.Current, e.Required, e.Shortage())
}

// Shortage is the missing amount, Required minus Current.
func (e *InsufficientBalanceError) Shortage() decimal.Decimal {
	return e.Required.Sub(e.Current)
}
