// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"goldtrade-engine/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	JWTSecret  string

	// QuoteTTL is how long an order's locked price stays honored.
	QuoteTTL time.Duration
	// SettleTimeout bounds a single settlement database transaction.
	SettleTimeout time.Duration
	// DeliveryFee is the flat Rial fee for physical coin delivery.
	DeliveryFee decimal.Decimal
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any required variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is fine; environment variables take over.
	_ = godotenv.Load()

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost" // Default to localhost for local development
	}
	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		dbPortStr = "5432" // Default PostgreSQL port
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "user" // Default user for local development
	}
	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		dbPassword = "password" // Default password for local development
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "goldtradedb" // Default database name for local development
	}
	dbSSLMode := os.Getenv("DB_SSLMODE")
	if dbSSLMode == "" {
		dbSSLMode = "disable" // Default to disable for local development
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	quoteTTL := 2 * time.Minute
	if v := os.Getenv("QUOTE_TTL"); v != "" {
		quoteTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid QUOTE_TTL: %w", err)
		}
	}

	settleTimeout := 10 * time.Second
	if v := os.Getenv("SETTLE_TIMEOUT"); v != "" {
		settleTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTLE_TIMEOUT: %w", err)
		}
	}

	deliveryFee := decimal.NewFromInt(500000)
	if v := os.Getenv("DELIVERY_FEE"); v != "" {
		deliveryFee, err = decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
		}
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
		JWTSecret:     jwtSecret,
		QuoteTTL:      quoteTTL,
		SettleTimeout: settleTimeout,
		DeliveryFee:   deliveryFee,
	}, nil
}
