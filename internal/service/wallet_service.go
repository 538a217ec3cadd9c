// internal/service/wallet_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/metrics"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"
	"goldtrade-engine/pkg/db"

	"github.com/shopspring/decimal"
)

// WalletService covers user-facing wallet operations: balance reads,
// ledger history, Rial transfers between users, and gateway deposit
// requests that wait for admin verification.
type WalletService interface {
	GetWallets(ctx context.Context, userID int64) ([]domain.Wallet, error)
	GetTransactionHistory(ctx context.Context, userID int64, walletType domain.WalletType, limit, offset int) ([]domain.Transaction, int64, error)
	// Transfer moves Rial between two users atomically; both wallet rows
	// are locked for the duration.
	Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) (*domain.Wallet, *domain.Wallet, error)
	// RequestDeposit records a PENDING deposit awaiting admin approval.
	// The wallet is not credited until an admin approves it.
	RequestDeposit(ctx context.Context, userID int64, amount decimal.Decimal, gateway, receiptNumber string) (*domain.Transaction, error)
}

type walletService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	gate            TradingGate
	metrics         *metrics.Metrics
	logger          *slog.Logger
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	settleTimeout   time.Duration
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	gate TradingGate,
	m *metrics.Metrics,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	settleTimeout time.Duration,
) WalletService {
	return &walletService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		gate:            gate,
		metrics:         m,
		logger:          logger,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		settleTimeout:   settleTimeout,
	}
}

func (s *walletService) GetWallets(ctx context.Context, userID int64) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.GetWalletsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallets: %w", err)
	}
	return wallets, nil
}

func (s *walletService) GetTransactionHistory(ctx context.Context, userID int64, walletType domain.WalletType, limit, offset int) ([]domain.Transaction, int64, error) {
	wallet, err := s.walletRepo.GetWallet(ctx, s.dbExecutor, userID, walletType)
	if err != nil {
		return nil, 0, fmt.Errorf("get transaction history: %w", err)
	}
	transactions, totalCount, err := s.transactionRepo.GetTransactionsByWallet(ctx, s.dbExecutor, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

func (s *walletService) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) (*domain.Wallet, *domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidInput
	}
	if fromUserID == toUserID {
		return nil, nil, util.ErrSameWalletTransfer
	}

	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	if err := s.gate.CheckAllowed(ctx, txExecutor); err != nil {
		s.metrics.TradingPausedRejections.Inc()
		return nil, nil, err
	}

	// Lock the two Rial wallets in user-ID order so opposite-direction
	// transfers between the same pair cannot deadlock.
	userIDs := []int64{fromUserID, toUserID}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	locked := make(map[int64]*domain.Wallet, 2)
	for _, id := range userIDs {
		w, err := s.walletRepo.GetWalletForUpdate(ctx, txExecutor, id, domain.WalletTypeRial)
		if err != nil {
			return nil, nil, fmt.Errorf("transfer: %w", err)
		}
		locked[id] = w
	}
	fromWallet, toWallet := locked[fromUserID], locked[toUserID]

	if fromWallet.Balance.LessThan(amount) {
		return nil, nil, &util.InsufficientBalanceError{
			WalletType: string(domain.WalletTypeRial),
			Current:    fromWallet.Balance,
			Required:   amount,
		}
	}

	if err := s.walletRepo.ApplyDelta(ctx, txExecutor, fromWallet.ID, amount.Neg()); err != nil {
		return nil, nil, fmt.Errorf("transfer: debit: %w", err)
	}
	if err := s.walletRepo.ApplyDelta(ctx, txExecutor, toWallet.ID, amount); err != nil {
		return nil, nil, fmt.Errorf("transfer: credit: %w", err)
	}

	debit := domain.NewTransaction(fromUserID, fromWallet.ID, domain.TransactionTypeTransfer, amount.Neg(), domain.Metadata{}, nil)
	credit := domain.NewTransaction(toUserID, toWallet.ID, domain.TransactionTypeTransfer, amount, domain.Metadata{}, nil)
	for _, t := range []*domain.Transaction{debit, credit} {
		if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, t); err != nil {
			return nil, nil, fmt.Errorf("transfer: ledger entry: %w", err)
		}
	}

	updatedFrom, err := s.walletRepo.GetWalletByID(ctx, txExecutor, fromWallet.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer: failed to re-fetch source wallet: %w", err)
	}
	updatedTo, err := s.walletRepo.GetWalletByID(ctx, txExecutor, toWallet.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer: failed to re-fetch destination wallet: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}
	s.metrics.LedgerEntries.WithLabelValues(string(domain.TransactionTypeTransfer)).Add(2)

	return updatedFrom, updatedTo, nil
}

func (s *walletService) RequestDeposit(ctx context.Context, userID int64, amount decimal.Decimal, gateway, receiptNumber string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) || gateway == "" || receiptNumber == "" {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("request deposit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("request deposit: transaction controller does not implement DBExecutor")
	}

	if err := s.gate.CheckAllowed(ctx, txExecutor); err != nil {
		s.metrics.TradingPausedRejections.Inc()
		return nil, err
	}

	wallet, err := s.walletRepo.GetWalletForUpdate(ctx, txExecutor, userID, domain.WalletTypeRial)
	if err != nil {
		return nil, fmt.Errorf("request deposit: %w", err)
	}

	meta := domain.Metadata{
		Kind:           domain.MetadataKindGatewayDeposit,
		GatewayDeposit: &domain.GatewayDeposit{Gateway: gateway, ReceiptNumber: receiptNumber},
	}
	entry := domain.NewPendingDeposit(userID, wallet.ID, amount, meta, receiptNumber)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, entry); err != nil {
		return nil, fmt.Errorf("request deposit: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("request deposit: failed to commit transaction: %w", err)
	}

	return entry, nil
}
