// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// TransactionRepository defines the interface for ledger entries.
// Entries are append-only; only the status of a PENDING deposit ever
// changes after insert.
type TransactionRepository interface {
	// CreateTransaction adds a new ledger entry using the provided
	// DBExecutor. Returns util.ErrDuplicateReference when the entry's
	// reference ID is already taken.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByID retrieves a ledger entry by its ID.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// GetTransactionByIDForUpdate retrieves a ledger entry under a
	// row-level lock, so concurrent approve/reject attempts serialize.
	GetTransactionByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// UpdateStatus persists a deposit status change.
	UpdateStatus(ctx context.Context, q DBExecutor, id int64, status domain.TransactionStatus) error
	// GetTransactionsByWallet retrieves paginated history for a wallet,
	// newest first, with the total count.
	GetTransactionsByWallet(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
}
