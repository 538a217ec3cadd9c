// internal/repository/postgres/notification_pg.go
package postgres

import (
	"context"
	"fmt"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"

	"github.com/jmoiron/sqlx"
)

// NotificationRepository implements repository.NotificationRepository for PostgreSQL.
type NotificationRepository struct{}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &NotificationRepository{}
}

// CreateNotification inserts a notification row.
func (r *NotificationRepository) CreateNotification(ctx context.Context, q repository.DBExecutor, n *domain.Notification) error {
	query := `INSERT INTO notifications (user_id, type, title, message, metadata, created_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.Metadata, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
