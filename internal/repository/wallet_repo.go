// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet using the provided DBExecutor.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID.
	GetWalletByID(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// GetWallet retrieves the user's wallet of the given type.
	GetWallet(ctx context.Context, q DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error)
	// GetWalletForUpdate retrieves the user's wallet of the given type and
	// takes a row-level exclusive lock for the duration of the enclosing
	// transaction, creating the wallet first if it does not exist yet.
	// Must be called with a transaction-backed DBExecutor.
	GetWalletForUpdate(ctx context.Context, q DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error)
	// GetWalletsByUser retrieves all wallets of a user.
	GetWalletsByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.Wallet, error)
	// ApplyDelta adds delta (which may be negative) to the wallet balance.
	// The statement fails rather than drive the balance negative.
	ApplyDelta(ctx context.Context, q DBExecutor, walletID int64, delta decimal.Decimal) error
}
