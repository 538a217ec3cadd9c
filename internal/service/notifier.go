// internal/service/notifier.go
package service

import (
	"context"
	"log/slog"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/repository"
)

// NotificationSink receives domain events for user-visible alerts.
// Publishing is fire-and-forget: it happens after the ledger commit and
// its failure must never roll back a settlement.
type NotificationSink interface {
	Publish(ctx context.Context, n *domain.Notification)
}

type storeNotificationSink struct {
	dbExecutor       repository.DBExecutor
	notificationRepo repository.NotificationRepository
	logger           *slog.Logger
}

// NewStoreNotificationSink creates a sink that persists notifications to
// the notifications table. Errors are logged and swallowed.
func NewStoreNotificationSink(dbExecutor repository.DBExecutor, notificationRepo repository.NotificationRepository, logger *slog.Logger) NotificationSink {
	return &storeNotificationSink{dbExecutor: dbExecutor, notificationRepo: notificationRepo, logger: logger}
}

func (s *storeNotificationSink) Publish(ctx context.Context, n *domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := s.notificationRepo.CreateNotification(ctx, s.dbExecutor, n); err != nil {
		s.logger.Error("failed to publish notification",
			"user_id", n.UserID, "type", n.Type, "error", err)
	}
}

// NopNotificationSink discards all notifications; used in tests.
type NopNotificationSink struct{}

func (NopNotificationSink) Publish(ctx context.Context, n *domain.Notification) {}
