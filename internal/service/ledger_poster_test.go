// internal/service/ledger_poster_test.go
package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/util"
	"goldtrade-engine/pkg/db"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decimalEq(expected decimal.Decimal) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(expected) })
}

type posterMocks struct {
	dbBeginner      *MockDBBeginner
	walletRepo      *MockWalletRepository
	transactionRepo *MockTransactionRepository
	orderRepo       *MockOrderRepository
	priceRepo       *MockPriceRepository
	txController    *MockTxController
}

func newPosterWithMocks() (LedgerPoster, *posterMocks) {
	m := &posterMocks{
		dbBeginner:      new(MockDBBeginner),
		walletRepo:      new(MockWalletRepository),
		transactionRepo: new(MockTransactionRepository),
		orderRepo:       new(MockOrderRepository),
		priceRepo:       new(MockPriceRepository),
		txController:    new(MockTxController),
	}
	poster := NewLedgerPoster(
		m.dbBeginner,
		m.walletRepo,
		m.transactionRepo,
		m.orderRepo,
		m.priceRepo,
		NopNotificationSink{},
		newTestMetrics(),
		testLogger(),
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return m.txController, nil
		},
		func(tx db.TxController) error {
			return m.txController.Commit()
		},
		func(tx db.TxController) {
			_ = m.txController.Rollback()
		},
		time.Second,
	)
	return poster, m
}

func TestSettle(t *testing.T) {
	t.Run("BuyDebitsRialAndCreditsProduct", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		q := new(MockDBExecutor)

		// 2 grams at 2,850,000 with a frozen commission of 57,000.
		order := domain.NewOrder(7, domain.OrderTypeBuy, domain.ProductGold18K,
			decimal.NewFromInt(2), decimal.NewFromInt(2850000),
			decimal.NewFromInt(57000), decimal.NewFromInt(1), time.Minute)
		order.ID = 11

		rialWallet := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: decimal.NewFromInt(10000000)}
		goldWallet := &domain.Wallet{ID: 2, UserID: 7, Type: domain.WalletTypeGold, Balance: decimal.Zero}

		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeRial).Return(rialWallet, nil).Once()
		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeGold).Return(goldWallet, nil).Once()
		m.walletRepo.On("ApplyDelta", ctx, q, int64(1), decimalEq(decimal.NewFromInt(-5700000))).Return(nil).Once()
		m.walletRepo.On("ApplyDelta", ctx, q, int64(2), decimalEq(decimal.NewFromInt(2))).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", ctx, q, mock.AnythingOfType("*domain.Transaction")).Return(nil).Twice()

		entries, err := poster.Settle(ctx, q, order)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.TransactionTypeOrderPayment, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-5700000)), "debit amount, got %s", entries[0].Amount)
		assert.Equal(t, int64(1), entries[0].WalletID)
		assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(2)), "credit amount, got %s", entries[1].Amount)
		assert.Equal(t, int64(2), entries[1].WalletID)
		require.NotNil(t, entries[0].Metadata.OrderSettlement)
		assert.Equal(t, int64(11), entries[0].Metadata.OrderSettlement.OrderID)

		mock.AssertExpectationsForObjects(t, m.walletRepo, m.transactionRepo)
	})

	t.Run("SellCreditsNetProceeds", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		q := new(MockDBExecutor)

		order := domain.NewOrder(7, domain.OrderTypeSell, domain.ProductGold18K,
			decimal.NewFromInt(2), decimal.NewFromInt(2850000),
			decimal.NewFromInt(85500), decimal.NewFromFloat(1.5), time.Minute)
		order.ID = 12

		goldWallet := &domain.Wallet{ID: 2, UserID: 7, Type: domain.WalletTypeGold, Balance: decimal.NewFromInt(5)}
		rialWallet := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: decimal.Zero}

		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeGold).Return(goldWallet, nil).Once()
		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeRial).Return(rialWallet, nil).Once()
		m.walletRepo.On("ApplyDelta", ctx, q, int64(2), decimalEq(decimal.NewFromInt(-2))).Return(nil).Once()
		// The seller receives total minus the frozen commission.
		m.walletRepo.On("ApplyDelta", ctx, q, int64(1), decimalEq(decimal.NewFromInt(5614500))).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", ctx, q, mock.AnythingOfType("*domain.Transaction")).Return(nil).Twice()

		entries, err := poster.Settle(ctx, q, order)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-2)))
		assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(5614500)))

		mock.AssertExpectationsForObjects(t, m.walletRepo, m.transactionRepo)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		q := new(MockDBExecutor)

		order := domain.NewOrder(7, domain.OrderTypeBuy, domain.ProductGold18K,
			decimal.NewFromInt(2), decimal.NewFromInt(2850000),
			decimal.NewFromInt(57000), decimal.NewFromInt(1), time.Minute)

		rialWallet := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: decimal.NewFromInt(1000000)}
		goldWallet := &domain.Wallet{ID: 2, UserID: 7, Type: domain.WalletTypeGold, Balance: decimal.Zero}

		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeRial).Return(rialWallet, nil).Once()
		m.walletRepo.On("GetWalletForUpdate", ctx, q, int64(7), domain.WalletTypeGold).Return(goldWallet, nil).Once()

		entries, err := poster.Settle(ctx, q, order)

		assert.Nil(t, entries)
		var insufficientErr *util.InsufficientBalanceError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, string(domain.WalletTypeRial), insufficientErr.WalletType)
		assert.True(t, insufficientErr.Shortage().Equal(decimal.NewFromInt(4700000)), "shortage, got %s", insufficientErr.Shortage())

		m.walletRepo.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.transactionRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChargeWallet(t *testing.T) {
	amount := decimal.NewFromInt(1000000)

	t.Run("RialCharge", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		tx := m.txController

		wallet := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: decimal.Zero}
		updated := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: amount}

		m.txController.On("Commit").Return(nil).Once()
		m.txController.On("Rollback").Return(nil).Maybe()
		m.walletRepo.On("GetWalletForUpdate", mock.Anything, tx, int64(7), domain.WalletTypeRial).Return(wallet, nil).Once()
		m.walletRepo.On("ApplyDelta", mock.Anything, tx, int64(1), decimalEq(amount)).Return(nil).Once()

		var captured *domain.Transaction
		m.transactionRepo.On("CreateTransaction", mock.Anything, tx, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) { captured = args.Get(2).(*domain.Transaction) }).
			Return(nil).Once()
		m.walletRepo.On("GetWalletByID", mock.Anything, tx, int64(1)).Return(updated, nil).Once()

		result, err := poster.ChargeWallet(ctx, ChargeWalletInput{
			UserID:        7,
			WalletType:    domain.WalletTypeRial,
			Amount:        amount,
			AdminID:       42,
			AdminUsername: "treasury",
			ReceiptNumber: "RCPT-9",
		})

		require.NoError(t, err)
		assert.Nil(t, result.Order)
		assert.True(t, result.Wallet.Balance.Equal(amount))
		require.NotNil(t, captured)
		assert.Equal(t, domain.TransactionTypeDeposit, captured.Type)
		assert.Equal(t, domain.TransactionStatusCompleted, captured.Status)
		require.NotNil(t, captured.ReferenceID)
		assert.Equal(t, "RCPT-9", *captured.ReferenceID)
		require.NotNil(t, captured.Metadata.ManualAdminCharge)
		assert.Equal(t, int64(42), captured.Metadata.ManualAdminCharge.AdminID)
		assert.Equal(t, domain.ChargeTypeManualAdmin, captured.Metadata.ManualAdminCharge.ChargeType)

		m.orderRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
		mock.AssertExpectationsForObjects(t, m.txController, m.walletRepo, m.transactionRepo)
	})

	t.Run("CoinChargeMintsCompletedOrder", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		tx := m.txController

		coinAmount := decimal.NewFromInt(2)
		wallet := &domain.Wallet{ID: 3, UserID: 7, Type: domain.WalletTypeCoinFull, Balance: decimal.Zero}
		updated := &domain.Wallet{ID: 3, UserID: 7, Type: domain.WalletTypeCoinFull, Balance: coinAmount}
		quote := &domain.PriceQuote{ProductType: domain.ProductCoinBahar86, BuyPrice: decimal.NewFromInt(50000000), SellPrice: decimal.NewFromInt(49000000)}

		m.txController.On("Commit").Return(nil).Once()
		m.txController.On("Rollback").Return(nil).Maybe()
		m.priceRepo.On("GetActivePrice", mock.Anything, tx, domain.ProductCoinBahar86).Return(quote, nil).Once()

		var mintedOrder *domain.Order
		m.orderRepo.On("CreateOrder", mock.Anything, tx, mock.AnythingOfType("*domain.Order")).
			Run(func(args mock.Arguments) { mintedOrder = args.Get(2).(*domain.Order) }).
			Return(nil).Once()
		m.walletRepo.On("GetWalletForUpdate", mock.Anything, tx, int64(7), domain.WalletTypeCoinFull).Return(wallet, nil).Once()
		m.walletRepo.On("ApplyDelta", mock.Anything, tx, int64(3), decimalEq(coinAmount)).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", mock.Anything, tx, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		m.walletRepo.On("GetWalletByID", mock.Anything, tx, int64(3)).Return(updated, nil).Once()

		result, err := poster.ChargeWallet(ctx, ChargeWalletInput{
			UserID:        7,
			WalletType:    domain.WalletTypeCoinFull,
			Amount:        coinAmount,
			AdminID:       42,
			AdminUsername: "treasury",
			ReceiptNumber: "RCPT-10",
		})

		require.NoError(t, err)
		require.NotNil(t, result.Order)
		require.NotNil(t, mintedOrder)
		assert.Equal(t, domain.OrderStatusCompleted, mintedOrder.Status)
		assert.True(t, mintedOrder.Commission.IsZero())
		assert.True(t, mintedOrder.Price.Equal(quote.BuyPrice))
		assert.NotNil(t, mintedOrder.CompletedAt)

		mock.AssertExpectationsForObjects(t, m.txController, m.priceRepo, m.orderRepo, m.walletRepo, m.transactionRepo)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()

		result, err := poster.ChargeWallet(ctx, ChargeWalletInput{
			UserID:     7,
			WalletType: domain.WalletTypeRial,
			Amount:     decimal.Zero,
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, util.ErrInvalidInput)
		m.dbBeginner.AssertNotCalled(t, "BeginTxx", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateReceipt", func(t *testing.T) {
		ctx := context.Background()
		poster, m := newPosterWithMocks()
		tx := m.txController

		wallet := &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial, Balance: decimal.Zero}

		m.txController.On("Commit").Return(nil).Maybe()
		m.txController.On("Rollback").Return(nil).Once()
		m.walletRepo.On("GetWalletForUpdate", mock.Anything, tx, int64(7), domain.WalletTypeRial).Return(wallet, nil).Once()
		m.walletRepo.On("ApplyDelta", mock.Anything, tx, int64(1), decimalEq(amount)).Return(nil).Once()
		m.transactionRepo.On("CreateTransaction", mock.Anything, tx, mock.AnythingOfType("*domain.Transaction")).
			Return(util.ErrDuplicateReference).Once()

		result, err := poster.ChargeWallet(ctx, ChargeWalletInput{
			UserID:        7,
			WalletType:    domain.WalletTypeRial,
			Amount:        amount,
			AdminID:       42,
			ReceiptNumber: "RCPT-9",
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, util.ErrDuplicateReference)
		m.txController.AssertNotCalled(t, "Commit")
	})
}
