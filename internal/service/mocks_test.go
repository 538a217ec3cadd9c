// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/metrics"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/util"
)

// newTestMetrics returns a Metrics instance on a private registry so
// tests never collide on collector registration.
func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implicitly implements repository.DBExecutor for testing purposes
// by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor // Embed MockDBExecutor to satisfy repository.DBExecutor interface
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWallet(ctx context.Context, q repository.DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID, walletType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletForUpdate(ctx context.Context, q repository.DBExecutor, userID int64, walletType domain.WalletType) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID, walletType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, walletID, delta)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, q repository.DBExecutor, order *domain.Order) error {
	args := m.Called(ctx, q, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Order, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrderByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Order, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, order *domain.Order) error {
	args := m.Called(ctx, q, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrdersByUser(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionsByWallet(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

// MockCommissionRepository is a mock implementation of repository.CommissionRepository.
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) GetActiveRate(ctx context.Context, q repository.DBExecutor, productType domain.ProductType) (*domain.CommissionRate, error) {
	args := m.Called(ctx, q, productType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionRate), args.Error(1)
}

func (m *MockCommissionRepository) UpsertRate(ctx context.Context, q repository.DBExecutor, rate *domain.CommissionRate) error {
	args := m.Called(ctx, q, rate)
	return args.Error(0)
}

// MockTradingModeRepository is a mock implementation of repository.TradingModeRepository.
type MockTradingModeRepository struct {
	mock.Mock
}

func (m *MockTradingModeRepository) GetMode(ctx context.Context, q repository.DBExecutor) (*domain.TradingMode, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TradingMode), args.Error(1)
}

func (m *MockTradingModeRepository) SetMode(ctx context.Context, q repository.DBExecutor, paused bool, message string) (*domain.TradingMode, error) {
	args := m.Called(ctx, q, paused, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TradingMode), args.Error(1)
}

// MockPriceRepository is a mock implementation of repository.PriceRepository.
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) GetActivePrice(ctx context.Context, q repository.DBExecutor, productType domain.ProductType) (*domain.PriceQuote, error) {
	args := m.Called(ctx, q, productType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}

// MockPriceOracle is a mock implementation of PriceOracle.
type MockPriceOracle struct {
	mock.Mock
}

func (m *MockPriceOracle) GetActivePrice(ctx context.Context, productType domain.ProductType) (*domain.PriceQuote, error) {
	args := m.Called(ctx, productType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}

// MockLedgerPoster is a mock implementation of LedgerPoster.
type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) Settle(ctx context.Context, q repository.DBExecutor, order *domain.Order) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerPoster) ChargeWallet(ctx context.Context, in ChargeWalletInput) (*ChargeResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChargeResult), args.Error(1)
}

// allowedGate is a TradingGate stub that always permits trading.
type allowedGate struct{}

func (allowedGate) CheckAllowed(ctx context.Context, q repository.DBExecutor) error {
	return nil
}

func (allowedGate) Mode(ctx context.Context) (*domain.TradingMode, error) {
	return &domain.TradingMode{ID: 1}, nil
}

func (allowedGate) SetMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error) {
	return &domain.TradingMode{ID: 1, TradingPaused: paused, Message: message}, nil
}

// pausedGate is a TradingGate stub that always rejects trading.
type pausedGate struct{}

func (pausedGate) CheckAllowed(ctx context.Context, q repository.DBExecutor) error {
	return &util.TradingPausedError{Message: "بازار بسته است"}
}

func (pausedGate) Mode(ctx context.Context) (*domain.TradingMode, error) {
	return &domain.TradingMode{ID: 1, TradingPaused: true}, nil
}

func (pausedGate) SetMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error) {
	return &domain.TradingMode{ID: 1, TradingPaused: paused, Message: message}, nil
}
