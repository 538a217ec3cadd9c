// internal/api/handler/admin_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/service"
)

// MockAdminService is a mock implementation of service.AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) CreateUser(ctx context.Context, username string, isAdmin bool) (*domain.User, []domain.Wallet, error) {
	args := m.Called(ctx, username, isAdmin)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	var wallets []domain.Wallet
	if args.Get(1) != nil {
		wallets = args.Get(1).([]domain.Wallet)
	}
	return user, wallets, args.Error(2)
}

func (m *MockAdminService) ChargeWallet(ctx context.Context, adminID int64, in service.ChargeWalletInput) (*service.ChargeResult, *domain.User, error) {
	args := m.Called(ctx, adminID, in)
	var result *service.ChargeResult
	if args.Get(0) != nil {
		result = args.Get(0).(*service.ChargeResult)
	}
	var user *domain.User
	if args.Get(1) != nil {
		user = args.Get(1).(*domain.User)
	}
	return result, user, args.Error(2)
}

func (m *MockAdminService) ApproveDeposit(ctx context.Context, adminID, transactionID int64) (*domain.Transaction, *domain.Wallet, error) {
	args := m.Called(ctx, adminID, transactionID)
	var transaction *domain.Transaction
	if args.Get(0) != nil {
		transaction = args.Get(0).(*domain.Transaction)
	}
	var wallet *domain.Wallet
	if args.Get(1) != nil {
		wallet = args.Get(1).(*domain.Wallet)
	}
	return transaction, wallet, args.Error(2)
}

func (m *MockAdminService) RejectDeposit(ctx context.Context, adminID, transactionID int64, reason string) (*domain.Transaction, error) {
	args := m.Called(ctx, adminID, transactionID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockAdminService) OverrideOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, reason string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockAdminService) SetTradingMode(ctx context.Context, paused bool, message string) (*domain.TradingMode, error) {
	args := m.Called(ctx, paused, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TradingMode), args.Error(1)
}

func (m *MockAdminService) UpsertCommissionRate(ctx context.Context, rate *domain.CommissionRate) (*domain.CommissionRate, error) {
	args := m.Called(ctx, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionRate), args.Error(1)
}

func newAdminRouter(svc *MockAdminService, identity auth.Identity) http.Handler {
	h := NewAdminHandler(svc, discardLogger())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/admin/users", h.CreateUser)
	r.Post("/admin/charge", h.ChargeWallet)
	return r
}

func TestAdminHandlerChargeWallet(t *testing.T) {
	identity := auth.Identity{UserID: 42, IsAdmin: true}

	t.Run("ReceiptlessChargeReachesService", func(t *testing.T) {
		svc := new(MockAdminService)
		router := newAdminRouter(svc, identity)

		user := &domain.User{ID: 7, Username: "customer"}
		result := &service.ChargeResult{
			Wallet:      &domain.Wallet{ID: 1, UserID: 7, Type: domain.WalletTypeRial},
			Transaction: &domain.Transaction{ID: 9},
		}
		svc.On("ChargeWallet", mock.Anything, int64(42),
			mock.MatchedBy(func(in service.ChargeWalletInput) bool {
				return in.UserID == 7 && in.WalletType == domain.WalletTypeRial && in.ReceiptNumber == ""
			})).
			Return(result, user, nil).Once()

		body := `{"user_id":7,"wallet_type":"RIAL","amount":"1000000"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/charge", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidWalletTypeRejectedBeforeService", func(t *testing.T) {
		svc := new(MockAdminService)
		router := newAdminRouter(svc, identity)

		body := `{"user_id":7,"wallet_type":"SILVER","amount":"1000000"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/charge", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ChargeWallet", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminHandlerCreateUser(t *testing.T) {
	identity := auth.Identity{UserID: 42, IsAdmin: true}

	t.Run("Created", func(t *testing.T) {
		svc := new(MockAdminService)
		router := newAdminRouter(svc, identity)

		user := &domain.User{ID: 7, Username: "customer"}
		wallets := []domain.Wallet{{ID: 1, UserID: 7, Type: domain.WalletTypeRial}}
		svc.On("CreateUser", mock.Anything, "customer", false).Return(user, wallets, nil).Once()

		body := `{"username":"customer"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got struct {
			User domain.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(7), got.User.ID)
		svc.AssertExpectations(t)
	})

	t.Run("ShortUsernameRejectedBeforeService", func(t *testing.T) {
		svc := new(MockAdminService)
		router := newAdminRouter(svc, identity)

		body := `{"username":"ab"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})
}
