// internal/api/handler/respond.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"goldtrade-engine/internal/api/types"
	"goldtrade-engine/internal/util"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeout bounds every HTTP request via chi's timeout middleware.
const DefaultTimeout = 30 * time.Second

// validate is the shared request validator; struct tags drive it.
var validate = validator.New()

// devMode exposes technical error detail in responses when set.
var devMode = os.Getenv("APP_ENV") == "development"

func respondWithJSON(logger *slog.Logger, w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps domain errors onto HTTP status codes with a
// human-readable message; technical detail only leaks in dev mode.
func respondWithError(logger *slog.Logger, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var paused *util.TradingPausedError
	var shortage *util.InsufficientBalanceError
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &paused):
		statusCode = http.StatusLocked
		message = paused.Error()
	case errors.As(err, &shortage):
		statusCode = http.StatusPaymentRequired
		message = shortage.Error()
	case errors.As(err, &invalid), util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrSameWalletTransfer):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Authentication required"
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Operation not permitted"
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound),
		util.IsError(err, util.ErrWalletNotFound), util.IsError(err, util.ErrOrderNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrNoActivePrice), util.IsError(err, util.ErrNoActiveRate):
		statusCode = http.StatusConflict
		message = "No active quote for this product"
	case util.IsError(err, util.ErrDuplicateReference):
		statusCode = http.StatusConflict
		message = "This receipt number has already been used"
	case util.IsError(err, util.ErrInvalidTransition):
		statusCode = http.StatusConflict
		message = "Order or deposit is not in a state that allows this change"
	case util.IsError(err, util.ErrOrderExpired):
		statusCode = http.StatusGone
		message = "The quoted price has expired; place a new order"
	case util.IsError(err, util.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Service temporarily unavailable, please retry"
	case util.IsError(err, util.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		message = "Operation timed out, please retry"
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	resp := types.ErrorResponse{Error: message}
	if devMode {
		resp.Detail = err.Error()
	}
	respondWithJSON(logger, w, statusCode, resp)
}

// decodeAndValidate decodes a JSON body into dst and runs struct
// validation; any failure is reported before a datastore call happens.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return util.ErrInvalidInput
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
