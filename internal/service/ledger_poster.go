// internal/service/ledger_poster.go
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

// ChargeWalletInput describes a manual admin wallet charge.
type ChargeWalletInput struct {
	UserID        int64
	WalletType    domain.WalletType
	Amount        decimal.Decimal
	Description   string
	AdminID       int64
	AdminUsername string
	ReceiptNumber string
	AdminNotes    string
}

// ChargeResult is what a manual charge produced: the updated wallet, the
// ledger entry, and for coin charges the record-keeping order.
type ChargeResult struct {
	Wallet      *domain.Wallet
	Order       *domain.Order
	Transaction *domain.Transaction
}

// LedgerPoster is the only writer of wallet balances. Every balance
// delta it applies is paired with exactly one ledger entry inside the
// same database transaction.
type LedgerPoster interface {
	// Settle moves money and metal for an order inside the caller's
	// transaction q. The source wallet must cover the order's required
	// balance or a *util.InsufficientBalanceError is returned and nothing
	// is written. Returns the ledger entries, debit first.
	Settle(ctx context.Context, q repository.DBExecutor, order *domain.Order) ([]domain.Transaction, error)
	// ChargeWallet applies a manual admin charge in its own atomic unit.
	// Coin wallet types mint a COMPLETED order; Rial and gold types write
	// a plain DEPOSIT entry. A reused receipt number fails with
	// util.ErrDuplicateReference instead of crediting twice.
	ChargeWallet(ctx context.Context, in ChargeWalletInput) (*ChargeResult, error)
}

type ledgerPoster struct {
	dbBeginner      db.DBTxBeginner
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	orderRepo       repository.OrderRepository
	priceRepo       repository.PriceRepository
	sink            NotificationSink
	metrics         *metrics.Metrics
	logger          *slog.Logger
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	settleTimeout   time.Duration
}

// NewLedgerPoster creates the ledger poster.
func NewLedgerPoster(
	dbBeginner db.DBTxBeginner,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	orderRepo repository.OrderRepository,
	priceRepo repository.PriceRepository,
	sink NotificationSink,
	m *metrics.Metrics,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	settleTimeout time.Duration,
) LedgerPoster {
	return &ledgerPoster{
		dbBeginner:      dbBeginner,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		orderRepo:       orderRepo,
		priceRepo:       priceRepo,
		sink:            sink,
		metrics:         m,
		logger:          logger,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		settleTimeout:   settleTimeout,
	}
}

// Settle applies the two wallet deltas of an order settlement.
//
// BUY:  debit the Rial wallet by totalPrice, credit the product wallet
//       by amount.
// SELL: debit the product wallet by amount, credit the Rial wallet by
//       totalPrice minus commission (the seller receives net proceeds; the
//       commission is retained, not separately debited).
//
// Wallet rows are locked in a stable order so two settlements touching
// the same pair of wallets from opposite sides cannot deadlock.
func (p *ledgerPoster) Settle(ctx context.Context, q repository.DBExecutor, order *domain.Order) ([]domain.Transaction, error) {
	srcType := order.SourceWalletType()
	dstType := order.DestinationWalletType()

	lockOrder := []domain.WalletType{srcType, dstType}
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i] < lockOrder[j] })

	wallets := make(map[domain.WalletType]*domain.Wallet, 2)
	for _, wt := range lockOrder {
		w, err := p.walletRepo.GetWalletForUpdate(ctx, q, order.UserID, wt)
		if err != nil {
			return nil, fmt.Errorf("settle order %d: %w", order.ID, err)
		}
		wallets[wt] = w
	}

	src, dst := wallets[srcType], wallets[dstType]
	required := order.RequiredBalance()
	if src.Balance.LessThan(required) {
		return nil, &util.InsufficientBalanceError{
			WalletType: string(srcType),
			Current:    src.Balance,
			Required:   required,
		}
	}

	credit := order.Amount
	if order.Type == domain.OrderTypeSell {
		credit = order.TotalPrice.Sub(order.Commission)
	}

	if err := p.walletRepo.ApplyDelta(ctx, q, src.ID, required.Neg()); err != nil {
		return nil, fmt.Errorf("settle order %d: debit: %w", order.ID, err)
	}
	if err := p.walletRepo.ApplyDelta(ctx, q, dst.ID, credit); err != nil {
		return nil, fmt.Errorf("settle order %d: credit: %w", order.ID, err)
	}

	meta := domain.Metadata{
		Kind:            domain.MetadataKindOrderSettlement,
		OrderSettlement: &domain.OrderSettlement{OrderID: order.ID, Side: order.Type},
	}
	debitTx := domain.NewTransaction(order.UserID, src.ID, domain.TransactionTypeOrderPayment, required.Neg(), meta, nil)
	creditTx := domain.NewTransaction(order.UserID, dst.ID, domain.TransactionTypeOrderPayment, credit, meta, nil)
	for _, t := range []*domain.Transaction{debitTx, creditTx} {
		if err := p.transactionRepo.CreateTransaction(ctx, q, t); err != nil {
			return nil, fmt.Errorf("settle order %d: ledger entry: %w", order.ID, err)
		}
		p.metrics.LedgerEntries.WithLabelValues(string(t.Type)).Inc()
	}

	return []domain.Transaction{*debitTx, *creditTx}, nil
}

// ChargeWallet applies a manual admin charge. The trading-pause gate is
// not consulted: manual charges are an admin-only entry point and stay
// available while trading is paused.
func (p *ledgerPoster) ChargeWallet(ctx context.Context, in ChargeWalletInput) (*ChargeResult, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}
	if !in.WalletType.Valid() {
		return nil, util.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, p.settleTimeout)
	defer cancel()
	started := time.Now()
	defer func() { p.metrics.SettlementDuration.Observe(time.Since(started).Seconds()) }()

	txController, err := p.beginTx(ctx, p.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("charge wallet: failed to begin transaction: %w", err)
	}
	defer p.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("charge wallet: transaction controller does not implement DBExecutor")
	}

	result := &ChargeResult{}

	if in.WalletType.IsCoin() {
		order, err := p.mintCoinOrder(ctx, txExecutor, in)
		if err != nil {
			return nil, err
		}
		result.Order = order
	}

	wallet, err := p.walletRepo.GetWalletForUpdate(ctx, txExecutor, in.UserID, in.WalletType)
	if err != nil {
		return nil, fmt.Errorf("charge wallet: %w", err)
	}
	if err := p.walletRepo.ApplyDelta(ctx, txExecutor, wallet.ID, in.Amount); err != nil {
		return nil, fmt.Errorf("charge wallet: %w", err)
	}

	meta := domain.Metadata{
		Kind: domain.MetadataKindManualAdminCharge,
		ManualAdminCharge: &domain.ManualAdminCharge{
			AdminID:       in.AdminID,
			AdminUsername: in.AdminUsername,
			ChargeType:    domain.ChargeTypeManualAdmin,
			ReceiptNumber: in.ReceiptNumber,
		},
	}
	var description *string
	if in.Description != "" {
		description = &in.Description
	}
	entry := domain.NewTransaction(in.UserID, wallet.ID, domain.TransactionTypeDeposit, in.Amount, meta, description)
	if in.ReceiptNumber != "" {
		entry.ReferenceID = &in.ReceiptNumber
	}
	if err := p.transactionRepo.CreateTransaction(ctx, txExecutor, entry); err != nil {
		return nil, fmt.Errorf("charge wallet: %w", err)
	}
	result.Transaction = entry

	updatedWallet, err := p.walletRepo.GetWalletByID(ctx, txExecutor, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("charge wallet: failed to re-fetch wallet %d: %w", wallet.ID, err)
	}
	result.Wallet = updatedWallet

	if err := p.commitTx(txController); err != nil {
		return nil, fmt.Errorf("charge wallet: failed to commit transaction: %w", err)
	}
	p.metrics.LedgerEntries.WithLabelValues(string(entry.Type)).Inc()

	p.sink.Publish(ctx, &domain.Notification{
		UserID:   in.UserID,
		Type:     domain.NotificationWalletCharged,
		Title:    "شارژ کیف پول",
		Message:  fmt.Sprintf("کیف پول %s شما در تاریخ %s به میزان %s شارژ شد.", in.WalletType, util.JalaliDateTime(time.Now()), in.Amount),
		Metadata: meta,
	})

	return result, nil
}

// mintCoinOrder creates the COMPLETED record-keeping order behind a
// manual coin charge, priced at the current active buy quote.
func (p *ledgerPoster) mintCoinOrder(ctx context.Context, q repository.DBExecutor, in ChargeWalletInput) (*domain.Order, error) {
	product, ok := domain.ProductForCoinWallet(in.WalletType)
	if !ok {
		return nil, util.ErrInvalidInput
	}
	quote, err := p.priceRepo.GetActivePrice(ctx, q, product)
	if err != nil {
		return nil, fmt.Errorf("charge wallet: %w", err)
	}
	order := domain.NewManualCoinOrder(in.UserID, product, in.Amount, quote.BuyPrice, in.AdminNotes)
	if err := p.orderRepo.CreateOrder(ctx, q, order); err != nil {
		return nil, fmt.Errorf("charge wallet: %w", err)
	}
	return order, nil
}
