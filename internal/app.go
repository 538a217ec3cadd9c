// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	router "goldtrade-engine/internal/api"
	"goldtrade-engine/internal/api/handler"
	"goldtrade-engine/internal/auth"
	"goldtrade-engine/internal/config"
	"goldtrade-engine/internal/metrics"
	"goldtrade-engine/internal/repository"
	"goldtrade-engine/internal/repository/postgres"
	"goldtrade-engine/internal/service"
	"goldtrade-engine/internal/util"
	"goldtrade-engine/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config   *config.AppConfig
	Logger   *slog.Logger
	DB       *sqlx.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repositories
	UserRepository         repository.UserRepository
	WalletRepository       repository.WalletRepository
	TransactionRepository  repository.TransactionRepository
	OrderRepository        repository.OrderRepository
	CommissionRepository   repository.CommissionRepository
	TradingModeRepository  repository.TradingModeRepository
	NotificationRepository repository.NotificationRepository
	PriceRepository        repository.PriceRepository

	// Services
	TradingGate   service.TradingGate
	PriceOracle   service.PriceOracle
	LedgerPoster  service.LedgerPoster
	OrderService  service.OrderService
	WalletService service.WalletService
	AdminService  service.AdminService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Metrics
	app.Registry = prometheus.NewRegistry()
	app.Metrics = metrics.New(app.Registry)

	// 5. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.OrderRepository = postgres.NewOrderRepository(app.DB)
	app.CommissionRepository = postgres.NewCommissionRepository(app.DB)
	app.TradingModeRepository = postgres.NewTradingModeRepository(app.DB)
	app.NotificationRepository = postgres.NewNotificationRepository(app.DB)
	app.PriceRepository = postgres.NewPriceRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.TradingGate = service.NewTradingGate(app.DB, app.TradingModeRepository)
	app.PriceOracle = service.NewStorePriceOracle(app.DB, app.PriceRepository)
	sink := service.NewStoreNotificationSink(app.DB, app.NotificationRepository, app.Logger)

	app.LedgerPoster = service.NewLedgerPoster(
		app.DB,
		app.WalletRepository,
		app.TransactionRepository,
		app.OrderRepository,
		app.PriceRepository,
		sink,
		app.Metrics,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.SettleTimeout,
	)

	app.OrderService = service.NewOrderService(service.OrderServiceDeps{
		DBBeginner:      app.DB,
		DBExecutor:      app.DB,
		OrderRepo:       app.OrderRepository,
		WalletRepo:      app.WalletRepository,
		TransactionRepo: app.TransactionRepository,
		CommissionRepo:  app.CommissionRepository,
		Oracle:          app.PriceOracle,
		Gate:            app.TradingGate,
		Poster:          app.LedgerPoster,
		Sink:            sink,
		Metrics:         app.Metrics,
		Logger:          app.Logger,
		BeginTx:         db.BeginTx,
		CommitTx:        db.CommitTx,
		RollbackTx:      db.RollbackTx,
		QuoteTTL:        app.Config.QuoteTTL,
		SettleTimeout:   app.Config.SettleTimeout,
		DeliveryFee:     app.Config.DeliveryFee,
	})

	app.WalletService = service.NewWalletService(
		app.DB,
		app.DB,
		app.WalletRepository,
		app.TransactionRepository,
		app.TradingGate,
		app.Metrics,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Config.SettleTimeout,
	)

	app.AdminService = service.NewAdminService(service.AdminServiceDeps{
		DBBeginner:      app.DB,
		DBExecutor:      app.DB,
		UserRepo:        app.UserRepository,
		WalletRepo:      app.WalletRepository,
		TransactionRepo: app.TransactionRepository,
		CommissionRepo:  app.CommissionRepository,
		Orders:          app.OrderService,
		Gate:            app.TradingGate,
		Poster:          app.LedgerPoster,
		Sink:            sink,
		Metrics:         app.Metrics,
		Logger:          app.Logger,
		BeginTx:         db.BeginTx,
		CommitTx:        db.CommitTx,
		RollbackTx:      db.RollbackTx,
		SettleTimeout:   app.Config.SettleTimeout,
	})
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	authGate := auth.NewGate(app.Config.JWTSecret)
	orderHandler := handler.NewOrderHandler(app.OrderService, app.Logger)
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	adminHandler := handler.NewAdminHandler(app.AdminService, app.Logger)
	app.HTTPHandler = router.NewRouter(router.RouterDeps{
		Orders:   orderHandler,
		Wallets:  walletHandler,
		Admin:    adminHandler,
		Auth:     authGate,
		Metrics:  app.Metrics,
		Registry: app.Registry,
		Logger:   app.Logger,
	})
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
