// internal/domain/notification.go
package domain

import "time"

// NotificationType categorizes user-visible alerts.
type NotificationType string

const (
	NotificationOrderCompleted  NotificationType = "ORDER_COMPLETED"
	NotificationOrderRejected   NotificationType = "ORDER_REJECTED"
	NotificationWalletCharged   NotificationType = "WALLET_CHARGED"
	NotificationDepositApproved NotificationType = "DEPOSIT_APPROVED"
	NotificationDepositRejected NotificationType = "DEPOSIT_REJECTED"
)

// Notification is a write-only side effect; it is never part of the
// ledger invariants and its failure never rolls back a settlement.
type Notification struct {
	ID        int64            `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Metadata  Metadata         `db:"metadata" json:"metadata"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
