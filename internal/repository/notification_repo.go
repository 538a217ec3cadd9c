// internal/repository/notification_repo.go
package repository

import (
	"context"

	"goldtrade-engine/internal/domain"
)

// NotificationRepository persists user-visible alerts.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, q DBExecutor, n *domain.Notification) error
}
