// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, type, balance, currency, is_active, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new wallet using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, type, balance, currency, is_active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.UserID, wallet.Type, wallet.Balance, wallet.Currency, wallet.IsActive,
		wallet.CreatedAt, wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet by its ID using the provided DBExecutor.
func (r *WalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	err := q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	return &wallet, nil
}

// GetWallet retrieves the user's wallet of the given type.
func (r *WalletRepository) GetWallet(ctx context.Context, q repository.DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND type = $2`
	err := q.GetContext(ctx, &wallet, query, userID, walletType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get %s wallet for user %d: %w", walletType, userID, err)
	}
	return &wallet, nil
}

// GetWalletForUpdate locks the user's wallet row for the enclosing
// transaction, lazily creating it on first use. The insert is idempotent
// under the (user_id, type) unique constraint, so two concurrent first
// credits converge on the same row and then serialize on the lock.
func (r *WalletRepository) GetWalletForUpdate(ctx context.Context, q repository.DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error) {
	insert := `INSERT INTO wallets (user_id, type, balance, currency, is_active, created_at, updated_at)
               VALUES ($1, $2, 0, $3, TRUE, $4, $4)
               ON CONFLICT (user_id, type) DO NOTHING`
	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx, insert, userID, walletType, walletType.Currency(), now); err != nil {
		return nil, fmt.Errorf("failed to ensure %s wallet for user %d: %w", walletType, userID, err)
	}

	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND type = $2 FOR UPDATE`
	if err := q.GetContext(ctx, &wallet, query, userID, walletType); err != nil {
		return nil, fmt.Errorf("failed to lock %s wallet for user %d: %w", walletType, userID, err)
	}
	return &wallet, nil
}

// GetWalletsByUser retrieves all wallets of a user.
func (r *WalletRepository) GetWalletsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Wallet, error) {
	wallets := []domain.Wallet{}
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY type`
	if err := q.SelectContext(ctx, &wallets, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get wallets for user %d: %w", userID, err)
	}
	return wallets, nil
}

// ApplyDelta adds delta to the wallet balance. The WHERE clause refuses
// to drive the balance below zero; callers verify balances under the row
// lock first, so zero rows affected is an internal error here.
func (r *WalletRepository) ApplyDelta(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = $2
              WHERE id = $3 AND balance + $1 >= 0`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for ID %d: %w", walletID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for wallet %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet %d: balance update affected no rows (missing wallet or negative balance guard)", walletID)
	}
	return nil
}
