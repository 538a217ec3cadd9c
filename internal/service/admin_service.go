// internal/service/admin_service.go
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
)

// AdminService is the explicitly separate entry point for admin
// overrides: manual wallet charges, pending-deposit verification, order
// status overrides, the trading-pause switch and the fee schedule. Its
// relaxed invariants (no buyer funds check on manual coin charges, no
// trading gate on charges) are visible here rather than buried in flags
// on the normal paths.
type AdminService interface {
	// CreateUser registers a platform user together with their first
	// wallet, so every account starts with a RIAL balance container.
	// A taken username fails with util.ErrDuplicateReference.
	CreateUser(ctx context.Context, username string, isAdmin bool) (*domain.User, []domain.Wallet, error)
	// ChargeWallet applies a manual charge through the ledger poster.
	// The acting admin is resolved for the audit metadata.
	ChargeWallet(ctx context.Context, adminID int64, in ChargeWalletInput) (*ChargeResult, *domain.User, error)
	// ApproveDeposit credits the wallet of a PENDING deposit and marks
	// it COMPLETED, atomically. A deposit that is not PENDING fails with
	// util.ErrInvalidTransition; a double approval can never credit twice.
	ApproveDeposit(ctx context.Context, adminID, transactionID int64) (*domain.Transaction, *domain.Wallet, error)
	// RejectDeposit marks a PENDING deposit FAILED. Requires a reason;
	// no wallet effect.
	RejectDeposit(ctx context.Context, adminID, transactionID int64, reason string) (*domain.Transaction, error)
	// OverrideOrderStatus drives the order state machine on behalf of an
	// admin. COMPLETED goes through settlement; all other terminal
	// states require a reason.
	OverrideOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, reason string) (*domain.Order, error)
	// SetTradingMode flips the global circuit breaker.
	SetTradingMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error)
	// UpsertCommissionRate replaces the fee schedule for a product.
	// Existing orders keep their frozen commission.
	UpsertCommissionRate(ctx context.Context, rate *domain.CommissionRate) (*domain.CommissionRate, error)
}

type adminService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	userRepo        repository.UserRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	commissionRepo  repository.CommissionRepository
	orders          OrderService
	gate            TradingGate
	poster          LedgerPoster
	sink            NotificationSink
	metrics         *metrics.Metrics
	logger          *slog.Logger
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	settleTimeout   time.Duration
}

// AdminServiceDeps bundles the collaborators of NewAdminService.
type AdminServiceDeps struct {
	DBBeginner      db.DBTxBeginner
	DBExecutor      repository.DBExecutor
	UserRepo        repository.UserRepository
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	CommissionRepo  repository.CommissionRepository
	Orders          OrderService
	Gate            TradingGate
	Poster          LedgerPoster
	Sink            NotificationSink
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	BeginTx         db.BeginTxFunc
	CommitTx        db.CommitTxFunc
	RollbackTx      db.RollbackTxFunc
	SettleTimeout   time.Duration
}

// NewAdminService creates a new instance of AdminService.
func NewAdminService(deps AdminServiceDeps) AdminService {
	return &adminService{
		dbBeginner:      deps.DBBeginner,
		dbExecutor:      deps.DBExecutor,
		userRepo:        deps.UserRepo,
		walletRepo:      deps.WalletRepo,
		transactionRepo: deps.TransactionRepo,
		commissionRepo:  deps.CommissionRepo,
		orders:          deps.Orders,
		gate:            deps.Gate,
		poster:          deps.Poster,
		sink:            deps.Sink,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		beginTx:         deps.BeginTx,
		commitTx:        deps.CommitTx,
		rollbackTx:      deps.RollbackTx,
		settleTimeout:   deps.SettleTimeout,
	}
}

func (s *adminService) CreateUser(ctx context.Context, username string, isAdmin bool) (*domain.User, []domain.Wallet, error) {
	if username == "" {
		return nil, nil, fmt.Errorf("create user: username is required: %w", util.ErrInvalidInput)
	}

	// Friendly pre-check; the unique constraint on username is the
	// actual guard against a concurrent registration.
	if _, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, username); err == nil {
		return nil, nil, fmt.Errorf("create user: username '%s' already taken: %w", username, util.ErrDuplicateReference)
	} else if !util.IsError(err, util.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("create user: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("create user: transaction controller does not implement DBExecutor")
	}

	user := domain.NewUser(username)
	user.IsAdmin = isAdmin
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	wallet := domain.NewWallet(user.ID, domain.WalletTypeRial)
	if err := s.walletRepo.CreateWallet(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("create user: failed to commit transaction: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "username", username, "is_admin", isAdmin)

	return user, []domain.Wallet{*wallet}, nil
}

func (s *adminService) ChargeWallet(ctx context.Context, adminID int64, in ChargeWalletInput) (*ChargeResult, *domain.User, error) {
	admin, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, adminID)
	if err != nil {
		return nil, nil, fmt.Errorf("charge wallet: %w", err)
	}
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, in.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("charge wallet: %w", err)
	}

	in.AdminID = admin.ID
	in.AdminUsername = admin.Username
	result, err := s.poster.ChargeWallet(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return result, user, nil
}

func (s *adminService) ApproveDeposit(ctx context.Context, adminID, transactionID int64) (*domain.Transaction, *domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("approve deposit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("approve deposit: transaction controller does not implement DBExecutor")
	}

	// The row lock serializes concurrent approvals; the status check
	// under the lock makes the second one a conflict, not a double credit.
	deposit, err := s.transactionRepo.GetTransactionByIDForUpdate(ctx, txExecutor, transactionID)
	if err != nil {
		return nil, nil, fmt.Errorf("approve deposit: %w", err)
	}
	if deposit.Status != domain.TransactionStatusPending {
		return nil, nil, fmt.Errorf("approve deposit %d: status %s: %w", transactionID, deposit.Status, util.ErrInvalidTransition)
	}

	wallet, err := s.walletRepo.GetWalletByID(ctx, txExecutor, deposit.WalletID)
	if err != nil {
		return nil, nil, fmt.Errorf("approve deposit: %w", err)
	}
	if _, err := s.walletRepo.GetWalletForUpdate(ctx, txExecutor, wallet.UserID, wallet.Type); err != nil {
		return nil, nil, fmt.Errorf("approve deposit: %w", err)
	}

	if err := s.transactionRepo.UpdateStatus(ctx, txExecutor, transactionID, domain.TransactionStatusCompleted); err != nil {
		return nil, nil, fmt.Errorf("approve deposit: %w", err)
	}
	if err := s.walletRepo.ApplyDelta(ctx, txExecutor, deposit.WalletID, deposit.Amount); err != nil {
		return nil, nil, fmt.Errorf("approve deposit: %w", err)
	}

	updatedWallet, err := s.walletRepo.GetWalletByID(ctx, txExecutor, deposit.WalletID)
	if err != nil {
		return nil, nil, fmt.Errorf("approve deposit: failed to re-fetch wallet: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("approve deposit: failed to commit transaction: %w", err)
	}
	s.metrics.LedgerEntries.WithLabelValues(string(domain.TransactionTypeDeposit)).Inc()
	s.logger.Info("deposit approved", "transaction_id", transactionID, "admin_id", adminID)

	deposit.Status = domain.TransactionStatusCompleted
	s.sink.Publish(ctx, &domain.Notification{
		UserID:   deposit.UserID,
		Type:     domain.NotificationDepositApproved,
		Title:    "تایید واریز",
		Message:  fmt.Sprintf("واریز شما به مبلغ %s در تاریخ %s تایید شد.", deposit.Amount, util.JalaliDateTime(time.Now())),
		Metadata: deposit.Metadata,
	})

	return deposit, updatedWallet, nil
}

func (s *adminService) RejectDeposit(ctx context.Context, adminID, transactionID int64, reason string) (*domain.Transaction, error) {
	if reason == "" {
		return nil, fmt.Errorf("reject deposit %d: reason required: %w", transactionID, util.ErrInvalidInput)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("reject deposit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("reject deposit: transaction controller does not implement DBExecutor")
	}

	deposit, err := s.transactionRepo.GetTransactionByIDForUpdate(ctx, txExecutor, transactionID)
	if err != nil {
		return nil, fmt.Errorf("reject deposit: %w", err)
	}
	if deposit.Status != domain.TransactionStatusPending {
		return nil, fmt.Errorf("reject deposit %d: status %s: %w", transactionID, deposit.Status, util.ErrInvalidTransition)
	}

	if err := s.transactionRepo.UpdateStatus(ctx, txExecutor, transactionID, domain.TransactionStatusFailed); err != nil {
		return nil, fmt.Errorf("reject deposit: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("reject deposit: failed to commit transaction: %w", err)
	}

	s.logger.Info("deposit rejected", "transaction_id", transactionID, "admin_id", adminID, "reason", reason)

	deposit.Status = domain.TransactionStatusFailed
	s.sink.Publish(ctx, &domain.Notification{
		UserID:   deposit.UserID,
		Type:     domain.NotificationDepositRejected,
		Title:    "رد واریز",
		Message:  fmt.Sprintf("واریز شما به مبلغ %s رد شد: %s", deposit.Amount, reason),
		Metadata: deposit.Metadata,
	})

	return deposit, nil
}

func (s *adminService) OverrideOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, reason string) (*domain.Order, error) {
	if status == domain.OrderStatusCompleted {
		order, _, err := s.orders.CompleteOrder(ctx, orderID)
		return order, err
	}
	return s.orders.TransitionOrder(ctx, orderID, status, reason)
}

func (s *adminService) SetTradingMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error) {
	mode, err := s.gate.SetMode(ctx, paused, message)
	if err != nil {
		return nil, fmt.Errorf("set trading mode: %w", err)
	}
	s.logger.Info("trading mode updated", "paused", mode.TradingPaused, "message", mode.Message)
	return mode, nil
}

func (s *adminService) UpsertCommissionRate(ctx context.Context, rate *domain.CommissionRate) (*domain.CommissionRate, error) {
	if rate.BuyRate.IsNegative() || rate.SellRate.IsNegative() || rate.MinAmount.IsNegative() || rate.MaxAmount.IsNegative() {
		return nil, util.ErrInvalidInput
	}
	if !rate.ProductType.Valid() {
		return nil, util.ErrInvalidInput
	}
	if err := s.commissionRepo.UpsertRate(ctx, s.dbExecutor, rate); err != nil {
		return nil, fmt.Errorf("upsert commission rate: %w", err)
	}
	return rate, nil
}
