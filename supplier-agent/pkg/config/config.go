package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/partsgrid/agents/pkg/config"
)

// Config holds the runtime configuration for the supplier agent.
type Config struct {
	ServiceName string
	Env         string // "dev", "uat", "prod"
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	// Pricing policy.
	SupplierID        string
	QuoteValidity     time.Duration
	FallbackUnitPrice string // decimal string, parsed at wiring time
	FallbackLeadTime  int    // days

	// Catalog backing store. "static" serves the built-in seed catalog,
	// "redis" reads entries from Redis.
	CatalogBackend string
	RedisAddr      string
	RedisDB        int
	RedisPass      string

	// Pre-shared bearer token buyers must present on /a2a.
	A2AToken string

	// Advertised base URL for the agent card.
	PublicURL string
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:       pkgconfig.GetEnv("SERVICE_NAME", "supplier-agent"),
		Env:               pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:          pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:              pkgconfig.GetEnvInt("SUPPLIER_PORT", 9101),
		HTTPReadTimeout:   pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:  pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:   pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:     pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		SupplierID:        pkgconfig.GetEnv("SUPPLIER_ID", "supplier-quoter/partsgrid-v1"),
		QuoteValidity:     pkgconfig.GetEnvDuration("QUOTE_VALIDITY", 7*24*time.Hour),
		FallbackUnitPrice: pkgconfig.GetEnv("FALLBACK_UNIT_PRICE", "99.99"),
		FallbackLeadTime:  pkgconfig.GetEnvInt("FALLBACK_LEAD_TIME_DAYS", 14),
		CatalogBackend:    pkgconfig.GetEnv("CATALOG_BACKEND", "static"),
		RedisAddr:         pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           pkgconfig.GetEnvInt("REDIS_DB", 0),
		RedisPass:         pkgconfig.GetEnv("REDIS_PASS", ""),
		A2AToken:          pkgconfig.GetEnv("A2A_TOKEN", "test-token"),
		PublicURL:         pkgconfig.GetEnv("PUBLIC_URL", "http://localhost:9101"),
	}
}
