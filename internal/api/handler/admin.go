// internal/api/handler/admin.go
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/service"
	"goldtrade-engine/internal/util"
)

// AdminHandler handles HTTP requests for the admin override surface.
type AdminHandler struct {
	service service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// CreateUserRequest represents the request body for registering a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser registers a user together with their first wallet.
// POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	user, wallets, err := h.service.CreateUser(r.Context(), req.Username, req.IsAdmin)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    user,
		"wallets": wallets,
	})
}

// ChargeWalletRequest represents the request body for a manual charge.
type ChargeWalletRequest struct {
	UserID        int64           `json:"user_id" validate:"required,gt=0"`
	WalletType    string          `json:"wallet_type" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Description   string          `json:"description"`
	ReceiptNumber string          `json:"receipt_number"`
	AdminNotes    string          `json:"admin_notes"`
}

// ChargeWallet handles the manual wallet charge request.
// POST /admin/charge
func (h *AdminHandler) ChargeWallet(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	var req ChargeWalletRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	walletType := domain.WalletType(req.WalletType)
	if !walletType.Valid() {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	result, user, err := h.service.ChargeWallet(r.Context(), identity.UserID, service.ChargeWalletInput{
		UserID:        req.UserID,
		WalletType:    walletType,
		Amount:        req.Amount,
		Description:   req.Description,
		ReceiptNumber: req.ReceiptNumber,
		AdminNotes:    req.AdminNotes,
	})
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	body := map[string]interface{}{
		"message":      "Wallet charged successfully",
		"user_id":      user.ID,
		"wallet":       result.Wallet,
		"transaction":  result.Transaction,
	}
	if result.Order != nil {
		body["order"] = result.Order
	}
	respondWithJSON(h.logger, w, http.StatusOK, body)
}

// OverrideOrderStatusRequest represents the request body for an order
// status override.
type OverrideOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// OverrideOrderStatus handles the order status override request.
// PATCH /admin/orders/{orderID}/status
func (h *AdminHandler) OverrideOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	var req OverrideOrderStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	order, err := h.service.OverrideOrderStatus(r.Context(), orderID, status, req.Reason)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message": "Order status updated",
		"order":   order,
	})
}

// SetTradingModeRequest represents the request body for the trading
// circuit breaker.
type SetTradingModeRequest struct {
	Paused  *bool  `json:"paused" validate:"required"`
	Message string `json:"message"`
}

// SetTradingMode handles the trading pause/resume request.
// PATCH /admin/trading-mode
func (h *AdminHandler) SetTradingMode(w http.ResponseWriter, r *http.Request) {
	var req SetTradingModeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	mode, err := h.service.SetTradingMode(r.Context(), *req.Paused, req.Message)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message":      "Trading mode updated",
		"trading_mode": mode,
	})
}

// ConfirmDepositRequest represents the request body for deposit
// verification.
type ConfirmDepositRequest struct {
	Action string `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Reason string `json:"reason"`
}

// ConfirmDeposit handles the pending deposit verification request.
// POST /admin/deposits/{transactionID}/confirm
func (h *AdminHandler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	transactionID, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	var req ConfirmDepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	if req.Action == "REJECT" {
		transaction, err := h.service.RejectDeposit(r.Context(), identity.UserID, transactionID, req.Reason)
		if err != nil {
			respondWithError(h.logger, w, err)
			return
		}
		respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
			"message":     "Deposit rejected",
			"transaction": transaction,
		})
		return
	}

	transaction, wallet, err := h.service.ApproveDeposit(r.Context(), identity.UserID, transactionID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message":     "Deposit approved",
		"transaction": transaction,
		"wallet":      wallet,
	})
}

// UpsertCommissionRateRequest represents the request body for the fee
// schedule upsert.
type UpsertCommissionRateRequest struct {
	BuyRate   decimal.Decimal `json:"buy_rate"`
	SellRate  decimal.Decimal `json:"sell_rate"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
}

// UpsertCommissionRate handles the fee schedule replacement request.
// PUT /admin/commission-rates/{productType}
func (h *AdminHandler) UpsertCommissionRate(w http.ResponseWriter, r *http.Request) {
	productType := domain.ProductType(chi.URLParam(r, "productType"))

	var req UpsertCommissionRateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	rate, err := h.service.UpsertCommissionRate(r.Context(), &domain.CommissionRate{
		ProductType: productType,
		BuyRate:     req.BuyRate,
		SellRate:    req.SellRate,
		MinAmount:   req.MinAmount,
		MaxAmount:   req.MaxAmount,
	})
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message":         "Commission rate updated",
		"commission_rate": rate,
	})
}
