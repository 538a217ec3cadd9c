// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goldtrade-engine/internal/api/handler"
	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/metrics"
)

// RouterDeps bundles everything NewRouter needs.
type RouterDeps struct {
	Orders   *handler.OrderHandler
	Wallets  *handler.WalletHandler
	Admin    *handler.AdminHandler
	Auth     *auth.Gate
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(deps.Metrics.Middleware)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	// Authenticated user routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.RequireUser)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", deps.Orders.Create)
			r.Get("/", deps.Orders.List)
			r.Get("/{orderID}", deps.Orders.Get)
			r.Post("/{orderID}/complete", deps.Orders.Complete)
			r.Post("/{orderID}/delivery", deps.Orders.RequestDelivery)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", deps.Wallets.List)
			r.Get("/{walletType}/transactions", deps.Wallets.Transactions)
		})

		// Transfer is a separate top-level endpoint as it involves two wallets
		r.Post("/transfers", deps.Wallets.Transfer)

		r.Post("/deposits", deps.Wallets.Deposit)
	})

	// Admin override routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(deps.Auth.RequireAdmin)

		r.Post("/users", deps.Admin.CreateUser)
		r.Post("/charge", deps.Admin.ChargeWallet)
		r.Patch("/orders/{orderID}/status", deps.Admin.OverrideOrderStatus)
		r.Patch("/trading-mode", deps.Admin.SetTradingMode)
		r.Post("/deposits/{transactionID}/confirm", deps.Admin.ConfirmDeposit)
		r.Put("/commission-rates/{productType}", deps.Admin.UpsertCommissionRate)
	})

	return r
}
