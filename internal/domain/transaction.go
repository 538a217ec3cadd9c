// internal/domain/transaction.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a ledger entry.
type TransactionType string

const (
	TransactionTypeDeposit      TransactionType = "DEPOSIT"
	TransactionTypeWithdraw     TransactionType = "WITHDRAW"
	TransactionTypeTransfer     TransactionType = "TRANSFER"
	TransactionTypeCommission   TransactionType = "COMMISSION"
	TransactionTypeOrderPayment TransactionType = "ORDER_PAYMENT"
	TransactionTypeDeliveryFee  TransactionType = "DELIVERY_FEE"
	TransactionTypeRefund       TransactionType = "REFUND"
)

// TransactionStatus defines the status of a ledger entry. Only manual
// deposits awaiting admin verification ever sit in PENDING; every entry
// written by the ledger poster is COMPLETED at insert time.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

// MetadataKind discriminates the metadata variants below.
type MetadataKind string

const (
	MetadataKindOrderSettlement   MetadataKind = "ORDER_SETTLEMENT"
	MetadataKindManualAdminCharge MetadataKind = "MANUAL_ADMIN_CHARGE"
	MetadataKindDeliveryFee       MetadataKind = "DELIVERY_FEE"
	MetadataKindGatewayDeposit    MetadataKind = "GATEWAY_DEPOSIT"
)

// OrderSettlement records which order a settlement entry belongs to.
type OrderSettlement struct {
	OrderID int64     `json:"order_id"`
	Side    OrderType `json:"side"`
}

// ManualAdminCharge records who charged a wallet by hand and against
// which paper receipt, if any.
type ManualAdminCharge struct {
	AdminID       int64  `json:"admin_id"`
	AdminUsername string `json:"admin_username"`
	ChargeType    string `json:"charge_type"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

// DeliveryFee records the order a physical-delivery fee was charged for.
type DeliveryFee struct {
	OrderID int64 `json:"order_id"`
}

// GatewayDeposit records a user-submitted deposit awaiting verification.
type GatewayDeposit struct {
	Gateway       string `json:"gateway"`
	ReceiptNumber string `json:"receipt_number"`
}

// ChargeTypeManualAdmin tags entries produced by the admin charge path.
const ChargeTypeManualAdmin = "MANUAL_ADMIN"

// Metadata is the tagged union stored in the transactions.metadata JSONB
// column. Exactly one variant pointer is non-nil, selected by Kind.
type Metadata struct {
	Kind              MetadataKind       `json:"kind"`
	OrderSettlement   *OrderSettlement   `json:"order_settlement,omitempty"`
	ManualAdminCharge *ManualAdminCharge `json:"manual_admin_charge,omitempty"`
	DeliveryFee       *DeliveryFee       `json:"delivery_fee,omitempty"`
	GatewayDeposit    *GatewayDeposit    `json:"gateway_deposit,omitempty"`
}

// Value implements driver.Valuer so Metadata can be bound to a JSONB column.
func (m Metadata) Value() (driver.Value, error) {
	if m.Kind == "" {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading Metadata back from JSONB.
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

// Transaction is one append-only ledger entry. Amount is the signed
// delta applied to the wallet, so a wallet's balance always equals the
// sum of its completed entries' amounts.
type Transaction struct {
	ID          int64             `db:"id" json:"id"`
	ReferenceID *string           `db:"reference_id" json:"reference_id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	WalletID    int64             `db:"wallet_id" json:"wallet_id"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	Status      TransactionStatus `db:"status" json:"status"`
	Metadata    Metadata          `db:"metadata" json:"metadata"`
	Description *string           `db:"description" json:"description"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// NewTransaction creates a COMPLETED ledger entry for a wallet delta.
func NewTransaction(userID, walletID int64, txType TransactionType, amount decimal.Decimal, meta Metadata, description *string) *Transaction {
	return &Transaction{
		UserID:      userID,
		WalletID:    walletID,
		Type:        txType,
		Amount:      amount,
		Status:      TransactionStatusCompleted,
		Metadata:    meta,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewPendingDeposit creates a deposit entry awaiting admin verification.
// The wallet is only credited when an admin approves it.
func NewPendingDeposit(userID, walletID int64, amount decimal.Decimal, meta Metadata, referenceID string) *Transaction {
	t := NewTransaction(userID, walletID, TransactionTypeDeposit, amount, meta, nil)
	t.Status = TransactionStatusPending
	if referenceID != "" {
		t.ReferenceID = &referenceID
	}
	return t
}
