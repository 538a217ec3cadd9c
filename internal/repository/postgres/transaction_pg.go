// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const transactionColumns = `id, reference_id, user_id, wallet_id, type, amount, status, metadata, description, created_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint breach.
const uniqueViolation = "23505"

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new ledger entry using the provided
// DBExecutor. A unique-index violation on reference_id surfaces as
// util.ErrDuplicateReference so a resubmitted receipt fails instead of
// crediting twice.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (reference_id, user_id, wallet_id, type, amount, status, metadata, description, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		transaction.ReferenceID,
		transaction.UserID,
		transaction.WalletID,
		transaction.Type,
		transaction.Amount,
		transaction.Status,
		transaction.Metadata,
		transaction.Description,
		transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("reference %v already used: %w", transaction.ReferenceID, util.ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a ledger entry by its ID.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	return r.getTransaction(ctx, q, id, false)
}

// GetTransactionByIDForUpdate retrieves a ledger entry under a row-level lock.
func (r *TransactionRepository) GetTransactionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	return r.getTransaction(ctx, q, id, true)
}

func (r *TransactionRepository) getTransaction(ctx context.Context, q repository.DBExecutor, id int64, forUpdate bool) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// UpdateStatus persists a deposit status change.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1 WHERE id = $2`
	result, err := q.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for transaction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// GetTransactionsByWallet retrieves a paginated list of ledger entries for a wallet.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) GetTransactionsByWallet(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = $1
              ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &transactions, query, walletID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, walletID); err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for wallet %d: %w", walletID, err)
	}
	return transactions, totalCount, nil
}
