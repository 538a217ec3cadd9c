// internal/api/handler/order.go
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"goldtrade-engine/internal/api/types"
	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/domain"
	"goldtrade-engine/internal/service"
	"goldtrade-engine/internal/util"
)

// OrderHandler handles HTTP requests related to order operations.
type OrderHandler struct {
	service service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// CreateOrderRequest represents the request body for order creation.
type CreateOrderRequest struct {
	Type        domain.OrderType   `json:"type" validate:"required,oneof=BUY SELL"`
	ProductType domain.ProductType `json:"product_type" validate:"required"`
	Amount      decimal.Decimal    `json:"amount" validate:"required"`
}

// Create handles the order creation request.
// POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), identity.UserID, req.Type, req.ProductType, req.Amount)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusCreated, order)
}

// Complete handles the order completion (settlement) request.
// POST /orders/{orderID}/complete
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}
	if err := h.ensureOwner(r, identity, orderID); err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	order, transactions, err := h.service.CompleteOrder(r.Context(), orderID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"order":        order,
		"transactions": transactions,
	})
}

// Get handles the order detail request.
// GET /orders/{orderID}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	if order.UserID != identity.UserID && !identity.IsAdmin {
		respondWithError(h.logger, w, util.ErrForbidden)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, order)
}

// List handles the paginated order history request.
// GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	limit, offset := pagination(r)
	orders, total, err := h.service.GetOrdersByUser(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, types.PaginatedResponse[domain.Order]{
		Data:       orders,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// RequestDelivery handles the physical-delivery fee request.
// POST /orders/{orderID}/delivery
func (h *OrderHandler) RequestDelivery(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFrom(r.Context())
	if err != nil {
		respondWithError(h.logger, w, util.ErrUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondWithError(h.logger, w, util.ErrInvalidInput)
		return
	}

	transaction, err := h.service.RequestDelivery(r.Context(), identity.UserID, orderID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"message":     "Delivery requested",
		"transaction": transaction,
	})
}

// ensureOwner verifies the order belongs to the caller (admins pass).
func (h *OrderHandler) ensureOwner(r *http.Request, identity auth.Identity, orderID int64) error {
	if identity.IsAdmin {
		return nil
	}
	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		return err
	}
	if order.UserID != identity.UserID {
		return util.ErrForbidden
	}
	return nil
}

// pagination parses limit/offset query parameters with defaults.
func pagination(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
