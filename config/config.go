// Package config provides configuration management for the cart sync SDK
// and the development gateway.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration.
type Config struct {
	Gateway  GatewayConfig
	Pricing  PricingConfig
	Engine   EngineConfig
	Server   ServerConfig
	Session  SessionConfig
	Database DatabaseConfig
	Log      LogConfig
}

// GatewayConfig holds remote cart gateway client configuration.
type GatewayConfig struct {
	// BaseURL is the cart API root, e.g. "http://localhost:5000/api".
	BaseURL string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// CircuitBreaker configuration
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerOpenTimeout      time.Duration
}

// PricingConfig holds the totals calculator configuration.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// EngineConfig holds mutation engine configuration.
type EngineConfig struct {
	// StaleResponseGuard enables sequence tagging of remote calls so
	// out-of-order confirmations are discarded.
	StaleResponseGuard bool
}

// ServerConfig holds development gateway HTTP server configuration.
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// SessionConfig holds guest session cookie configuration.
type SessionConfig struct {
	// JWTSecret signs the session cookie.
	JWTSecret string
	// TTL is the session cookie lifetime.
	TTL time.Duration
}

// DatabaseConfig holds the development gateway's MongoDB configuration.
// The gateway keeps carts in memory unless Enabled is set.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
	Enabled      bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load creates a Config from environment variables.
func Load() Config {
	return Config{
		Gateway: GatewayConfig{
			BaseURL:                        getEnv("CART_API_URL", "http://localhost:5000/api"),
			Timeout:                        getEnvDuration("CART_API_TIMEOUT", 60*time.Second),
			CircuitBreakerFailureThreshold: getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			CircuitBreakerSuccessThreshold: getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			CircuitBreakerOpenTimeout:      getEnvDuration("CIRCUIT_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: getEnvDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(5000)),
			ShippingFee:           getEnvDecimal("SHIPPING_FEE", decimal.NewFromInt(250)),
		},
		Engine: EngineConfig{
			StaleResponseGuard: getEnvBool("STALE_RESPONSE_GUARD", false),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			CORSOrigins: parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
		},
		Session: SessionConfig{
			JWTSecret: getEnv("SESSION_JWT_SECRET", "dev-session-secret-change-in-production"),
			TTL:       getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Database: DatabaseConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DatabaseName: getEnv("MONGODB_DATABASE", "cart_dev_gateway"),
			Enabled:      getEnvBool("MONGODB_ENABLED", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			return d
		}
	}
	return defaultValue
}

func parseCORSOrigins(s string) []string {
	// Default origins for local storefront development
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if s == "" {
		return defaults
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts)+len(defaults))
	result = append(result, defaults...)
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
