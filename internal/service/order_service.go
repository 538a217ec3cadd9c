// internal/service/order_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/metrics"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"
	"goldtrade-engine/pkg/db"

	"github.com/shopspring/decimal"
)

// OrderService creates orders with the quote locked in, completes them
// through the ledger poster, and owns the status state machine.
type OrderService interface {
	// CreateOrder prices an order against the active quote and freezes
	// price, total and commission. The order holds no wallet lock and
	// debits nothing until completion.
	CreateOrder(ctx context.Context, userID int64, side domain.OrderType, product domain.ProductType, amount decimal.Decimal) (*domain.Order, error)
	// CompleteOrder settles a PENDING order atomically. The trading gate
	// and the quote expiry are re-checked inside the same transaction
	// that locks the wallets. An expired order is persisted as EXPIRED
	// and util.ErrOrderExpired is returned.
	CompleteOrder(ctx context.Context, orderID int64) (*domain.Order, []domain.Transaction, error)
	// TransitionOrder moves a PENDING order into a terminal
	// non-COMPLETED state. Terminal states are absorbing; every state
	// except COMPLETED requires a non-empty reason. No ledger effect.
	TransitionOrder(ctx context.Context, orderID int64, status domain.OrderStatus, reason string) (*domain.Order, error)
	// GetOrder retrieves an order. A PENDING order past its quote window
	// is reported as EXPIRED (display only; the row is not rewritten).
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	// GetOrdersByUser retrieves a paginated order history.
	GetOrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error)
	// RequestDelivery charges the configured Rial delivery fee for a
	// COMPLETED coin order and writes a DELIVERY_FEE ledger entry.
	RequestDelivery(ctx context.Context, userID, orderID int64) (*domain.Transaction, error)
}

type orderService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	orderRepo       repository.OrderRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	commissionRepo  repository.CommissionRepository
	oracle          PriceOracle
	gate            TradingGate
	poster          LedgerPoster
	sink            NotificationSink
	metrics         *metrics.Metrics
	logger          *slog.Logger
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	quoteTTL        time.Duration
	settleTimeout   time.Duration
	deliveryFee     decimal.Decimal
}

// OrderServiceDeps bundles the collaborators of NewOrderService.
type OrderServiceDeps struct {
	DBBeginner      db.DBTxBeginner
	DBExecutor      repository.DBExecutor
	OrderRepo       repository.OrderRepository
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	CommissionRepo  repository.CommissionRepository
	Oracle          PriceOracle
	Gate            TradingGate
	Poster          LedgerPoster
	Sink            NotificationSink
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	BeginTx         db.BeginTxFunc
	CommitTx        db.CommitTxFunc
	RollbackTx      db.RollbackTxFunc
	QuoteTTL        time.Duration
	SettleTimeout   time.Duration
	DeliveryFee     decimal.Decimal
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(deps OrderServiceDeps) OrderService {
	return &orderService{
		dbBeginner:      deps.DBBeginner,
		dbExecutor:      deps.DBExecutor,
		orderRepo:       deps.OrderRepo,
		walletRepo:      deps.WalletRepo,
		transactionRepo: deps.TransactionRepo,
		commissionRepo:  deps.CommissionRepo,
		oracle:          deps.Oracle,
		gate:            deps.Gate,
		poster:          deps.Poster,
		sink:            deps.Sink,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		beginTx:         deps.BeginTx,
		commitTx:        deps.CommitTx,
		rollbackTx:      deps.RollbackTx,
		quoteTTL:        deps.QuoteTTL,
		settleTimeout:   deps.SettleTimeout,
		deliveryFee:     deps.DeliveryFee,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID int64, side domain.OrderType, product domain.ProductType, amount decimal.Decimal) (*domain.Order, error) {
	if amount.LessThanOrEqual(decimal.Zero) || !side.Valid() || !product.Valid() {
		return nil, util.ErrInvalidInput
	}

	if err := s.gate.CheckAllowed(ctx, nil); err != nil {
		s.metrics.TradingPausedRejections.Inc()
		return nil, err
	}

	quote, err := s.oracle.GetActivePrice(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	rate, err := s.commissionRepo.GetActiveRate(ctx, s.dbExecutor, product)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	price := quote.PriceFor(side)
	commission := domain.CalculateCommission(amount, price, rate, side)
	order := domain.NewOrder(userID, side, product, amount, price, commission, rate.RateFor(side), s.quoteTTL)

	if err := s.orderRepo.CreateOrder(ctx, s.dbExecutor, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.metrics.OrdersCreated.WithLabelValues(string(product), string(side)).Inc()
	return order, nil
}

func (s *orderService) CompleteOrder(ctx context.Context, orderID int64) (*domain.Order, []domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()
	started := time.Now()
	defer func() { s.metrics.SettlementDuration.Observe(time.Since(started).Seconds()) }()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("complete order: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("complete order: transaction controller does not implement DBExecutor")
	}

	order, err := s.orderRepo.GetOrderByIDForUpdate(ctx, txExecutor, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("complete order: %w", err)
	}
	if order.Status.Terminal() {
		return nil, nil, fmt.Errorf("complete order %d: status %s: %w", orderID, order.Status, util.ErrInvalidTransition)
	}

	// The gate is re-read inside this transaction so a pause landing
	// after the caller's entry check still blocks the settlement.
	if err := s.gate.CheckAllowed(ctx, txExecutor); err != nil {
		s.metrics.TradingPausedRejections.Inc()
		return nil, nil, err
	}

	now := time.Now().UTC()
	if order.Expired(now) {
		reason := "quote validity window elapsed before completion"
		order.Status = domain.OrderStatusExpired
		order.StatusReason = &reason
		if err := s.orderRepo.UpdateStatus(ctx, txExecutor, order); err != nil {
			return nil, nil, fmt.Errorf("complete order %d: expire: %w", orderID, err)
		}
		if err := s.commitTx(txController); err != nil {
			return nil, nil, fmt.Errorf("complete order %d: failed to commit expiry: %w", orderID, err)
		}
		return nil, nil, fmt.Errorf("complete order %d: %w", orderID, util.ErrOrderExpired)
	}

	entries, err := s.poster.Settle(ctx, txExecutor, order)
	if err != nil {
		return nil, nil, err
	}

	order.Status = domain.OrderStatusCompleted
	order.CompletedAt = &now
	if err := s.orderRepo.UpdateStatus(ctx, txExecutor, order); err != nil {
		return nil, nil, fmt.Errorf("complete order %d: %w", orderID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("complete order %d: failed to commit transaction: %w", orderID, err)
	}
	s.metrics.OrdersSettled.WithLabelValues(string(order.ProductType), string(order.Type)).Inc()

	s.sink.Publish(ctx, &domain.Notification{
		UserID:  order.UserID,
		Type:    domain.NotificationOrderCompleted,
		Title:   "تکمیل سفارش",
		Message: fmt.Sprintf("سفارش %s شما در تاریخ %s تکمیل شد.", order.ReferenceID, util.JalaliDateTime(now)),
		Metadata: domain.Metadata{
			Kind:            domain.MetadataKindOrderSettlement,
			OrderSettlement: &domain.OrderSettlement{OrderID: order.ID, Side: order.Type},
		},
	})

	return order, entries, nil
}

func (s *orderService) TransitionOrder(ctx context.Context, orderID int64, status domain.OrderStatus, reason string) (*domain.Order, error) {
	if !status.Valid() || status == domain.OrderStatusPending {
		return nil, util.ErrInvalidInput
	}
	if status == domain.OrderStatusCompleted {
		// Completion moves money; it must go through CompleteOrder.
		return nil, fmt.Errorf("transition order %d: COMPLETED requires settlement: %w", orderID, util.ErrInvalidTransition)
	}
	if status.RequiresReason() && reason == "" {
		return nil, fmt.Errorf("transition order %d to %s: reason required: %w", orderID, status, util.ErrInvalidInput)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("transition order: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transition order: transaction controller does not implement DBExecutor")
	}

	order, err := s.orderRepo.GetOrderByIDForUpdate(ctx, txExecutor, orderID)
	if err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("transition order %d: status %s is terminal: %w", orderID, order.Status, util.ErrInvalidTransition)
	}

	order.Status = status
	order.StatusReason = &reason
	if err := s.orderRepo.UpdateStatus(ctx, txExecutor, order); err != nil {
		return nil, fmt.Errorf("transition order %d: %w", orderID, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("transition order %d: failed to commit transaction: %w", orderID, err)
	}

	s.sink.Publish(ctx, &domain.Notification{
		UserID:  order.UserID,
		Type:    domain.NotificationOrderRejected,
		Title:   "تغییر وضعیت سفارش",
		Message: fmt.Sprintf("سفارش %s شما به وضعیت %s تغییر یافت: %s", order.ReferenceID, status, reason),
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, s.dbExecutor, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	// A stale PENDING row past its window reads as expired. The stored
	// status only changes on an explicit transition or a completion
	// attempt; expiry is evaluated lazily at every read.
	if order.Status == domain.OrderStatusPending && order.Expired(time.Now().UTC()) {
		order.Status = domain.OrderStatusExpired
	}
	return order, nil
}

func (s *orderService) GetOrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	orders, total, err := s.orderRepo.GetOrdersByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get orders: %w", err)
	}
	now := time.Now().UTC()
	for i := range orders {
		if orders[i].Status == domain.OrderStatusPending && orders[i].Expired(now) {
			orders[i].Status = domain.OrderStatusExpired
		}
	}
	return orders, total, nil
}

func (s *orderService) RequestDelivery(ctx context.Context, userID, orderID int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("request delivery: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("request delivery: transaction controller does not implement DBExecutor")
	}

	if err := s.gate.CheckAllowed(ctx, txExecutor); err != nil {
		s.metrics.TradingPausedRejections.Inc()
		return nil, err
	}

	order, err := s.orderRepo.GetOrderByID(ctx, txExecutor, orderID)
	if err != nil {
		return nil, fmt.Errorf("request delivery: %w", err)
	}
	if order.UserID != userID {
		return nil, util.ErrForbidden
	}
	if order.Status != domain.OrderStatusCompleted || !domain.WalletTypeForProduct(order.ProductType).IsCoin() {
		return nil, fmt.Errorf("request delivery for order %d: only completed coin orders can be delivered: %w", orderID, util.ErrInvalidInput)
	}

	wallet, err := s.walletRepo.GetWalletForUpdate(ctx, txExecutor, userID, domain.WalletTypeRial)
	if err != nil {
		return nil, fmt.Errorf("request delivery: %w", err)
	}
	if wallet.Balance.LessThan(s.deliveryFee) {
		return nil, &util.InsufficientBalanceError{
			WalletType: string(domain.WalletTypeRial),
			Current:    wallet.Balance,
			Required:   s.deliveryFee,
		}
	}
	if err := s.walletRepo.ApplyDelta(ctx, txExecutor, wallet.ID, s.deliveryFee.Neg()); err != nil {
		return nil, fmt.Errorf("request delivery: %w", err)
	}

	meta := domain.Metadata{
		Kind:        domain.MetadataKindDeliveryFee,
		DeliveryFee: &domain.DeliveryFee{OrderID: order.ID},
	}
	entry := domain.NewTransaction(userID, wallet.ID, domain.TransactionTypeDeliveryFee, s.deliveryFee.Neg(), meta, nil)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, entry); err != nil {
		return nil, fmt.Errorf("request delivery: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("request delivery: failed to commit transaction: %w", err)
	}
	s.metrics.LedgerEntries.WithLabelValues(string(entry.Type)).Inc()

	return entry, nil
}
