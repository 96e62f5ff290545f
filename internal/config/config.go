package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	RabbitMQURL string

	CorsAllowedOrigins []string

	// LockTimeout bounds how long a mutation waits for an order row lock
	// before failing with a retryable DATABASE_ERROR.
	LockTimeout time.Duration

	// Rate limiting per user per operation.
	RateLimitPerMinute int
	RateLimitBurst     int

	// Fallbacks used when a tenant has no settings row.
	DefaultTaxRatePercent  float64
	DefaultCurrency        string
	DefaultMaxTipPercent   float64
	DefaultMaxDiscount     float64
	DefaultMaxItemDiscount float64
	DefaultRefundApproval  float64
	DefaultMaxParkedOrders int
	DefaultParkExpiry      time.Duration
}

func Load() Config {
	cfg := Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8090"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		LockTimeout: getEnvDuration("ORDER_LOCK_TIMEOUT", 5*time.Second),

		RateLimitPerMinute: int(getEnvInt64("RATE_LIMIT_PER_MINUTE", 60)),
		RateLimitBurst:     int(getEnvInt64("RATE_LIMIT_BURST", 10)),

		DefaultTaxRatePercent:  getEnvFloat("DEFAULT_TAX_RATE", 10),
		DefaultCurrency:        getEnv("DEFAULT_CURRENCY", "USD"),
		DefaultMaxTipPercent:   getEnvFloat("DEFAULT_MAX_TIP_PERCENT", 50),
		DefaultMaxDiscount:     getEnvFloat("DEFAULT_MAX_DISCOUNT_PERCENT", 50),
		DefaultMaxItemDiscount: getEnvFloat("DEFAULT_MAX_ITEM_DISCOUNT_PERCENT", 30),
		DefaultRefundApproval:  getEnvFloat("DEFAULT_REFUND_APPROVAL_PERCENT", 20),
		DefaultMaxParkedOrders: int(getEnvInt64("DEFAULT_MAX_PARKED_ORDERS", 20)),
		DefaultParkExpiry:      getEnvDuration("DEFAULT_PARK_EXPIRY", 4*time.Hour),
	}

	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}

	return cfg
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
