// internal/repository/order_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// OrderRepository defines the interface for order data operations.
// Orders are never deleted; status changes go through UpdateStatus.
type OrderRepository interface {
	// CreateOrder inserts a new order using the provided DBExecutor.
	CreateOrder(ctx context.Context, q DBExecutor, order *domain.Order) error
	// GetOrderByID retrieves an order by its ID.
	GetOrderByID(ctx context.Context, q DBExecutor, id int64) (*domain.Order, error)
	// GetOrderByIDForUpdate retrieves an order and takes a row-level lock,
	// so concurrent transition attempts on the same order serialize.
	GetOrderByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Order, error)
	// UpdateStatus persists a status change together with its reason and
	// completion timestamp.
	UpdateStatus(ctx context.Context, q DBExecutor, order *domain.Order) error
	// GetOrdersByUser retrieves a paginated order history for a user,
	// newest first, with the total count.
	GetOrdersByUser(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.Order, int64, error)
}
