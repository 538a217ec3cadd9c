// internal/repository/postgres/order_pg.go
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
)

const orderColumns = `id, reference_id, user_id, type, product_type, amount, price, total_price,
       commission, commission_rate, status, price_locked_at, expires_at, completed_at,
       status_reason, admin_notes, is_automatic, created_at, updated_at`

// OrderRepository implements repository.OrderRepository for PostgreSQL.
type OrderRepository struct{}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &OrderRepository{}
}

// CreateOrder inserts a new order using the provided DBExecutor.
func (r *OrderRepository) CreateOrder(ctx context.Context, q repository.DBExecutor, order *domain.Order) error {
	query := `INSERT INTO orders (reference_id, user_id, type, product_type, amount, price, total_price,
                  commission, commission_rate, status, price_locked_at, expires_at, completed_at,
                  status_reason, admin_notes, is_automatic, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
              RETURNING id`
	err := q.QueryRowContext(ctx, query,
		order.ReferenceID, order.UserID, order.Type, order.ProductType, order.Amount,
		order.Price, order.TotalPrice, order.Commission, order.CommissionRate, order.Status,
		order.PriceLockedAt, order.ExpiresAt, order.CompletedAt, order.StatusReason,
		order.AdminNotes, order.IsAutomatic, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrderByID retrieves an order by its ID using the provided DBExecutor.
func (r *OrderRepository) GetOrderByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Order, error) {
	return r.getOrder(ctx, q, id, false)
}

// GetOrderByIDForUpdate retrieves an order under a row-level lock.
func (r *OrderRepository) GetOrderByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Order, error) {
	return r.getOrder(ctx, q, id, true)
}

func (r *OrderRepository) getOrder(ctx context.Context, q repository.DBExecutor, id int64, forUpdate bool) (*domain.Order, error) {
	var order domain.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &order, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

// UpdateStatus persists a status change; the state machine in the
// service layer has already validated the transition.
func (r *OrderRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, order *domain.Order) error {
	query := `UPDATE orders SET status = $1, status_reason = $2, completed_at = $3, updated_at = $4
              WHERE id = $5`
	result, err := q.ExecContext(ctx, query,
		order.Status, order.StatusReason, order.CompletedAt, time.Now().UTC(), order.ID)
	if err != nil {
		return fmt.Errorf("failed to update status for order %d: %w", order.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for order %d: %w", order.ID, err)
	}
	if rowsAffected == 0 {
		return util.ErrOrderNotFound
	}
	return nil
}

// GetOrdersByUser retrieves a paginated order history for a user.
// It performs two queries: one for the data and one for the total count.
func (r *OrderRepository) GetOrdersByUser(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	orders := []domain.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1
              ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &orders, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to get total order count for user %d: %w", userID, err)
	}
	return orders, totalCount, nil
}
