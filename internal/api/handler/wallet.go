// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"goldtrade-engine/internal/api/types"
	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/service"
	"goldtrade-engine/internal/util"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{service: svc, logger: logger}
}

// List handles the wallet overview request.
// GET /wallets
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	wallets, err := h.service.GetWallets(r.Context(), identity.UserID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{"wallets": wallets})
}

// Transactions handles the wallet ledger history request.
// GET /wallets/{walletType}/transactions
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	walletType := domain.WalletType(chi.URLParam(r, "walletType"))
	if !walletType.Valid() {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	limit, offset := pagination(r)
	transactions, total, err := h.service.GetTransactionHistory(r.Context(), identity.UserID, walletType, limit, offset)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	ToUserID int64           `json:"to_user_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

// Transfer handles the Rial transfer request.
// POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	var req TransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	fromWallet, toWallet, err := h.service.Transfer(r.Context(), identity.UserID, req.ToUserID, req.Amount)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message":                 "Transfer successful",
		"from_wallet_new_balance": fromWallet.Balance,
		"to_wallet_new_balance":   toWallet.Balance,
	})
}

// DepositRequest represents the request body for a gateway deposit.
type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Gateway       string          `json:"gateway" validate:"required"`
	ReceiptNumber string          `json:"receipt_number" validate:"required"`
}

// Deposit handles the deposit request; the resulting transaction stays
// PENDING until an admin approves it.
// POST /deposits
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	var req DepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	transaction, err := h.service.RequestDeposit(r.Context(), identity.UserID, req.Amount, req.Gateway, req.ReceiptNumber)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusAccepted, map[string]interface{}{
		"message":     "Deposit submitted for verification",
		"transaction": transaction,
	})
}
