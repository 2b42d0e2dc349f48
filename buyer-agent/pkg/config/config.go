package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/partsgrid/agents/pkg/config"
)

// Config holds the runtime configuration for the buyer agent.
type Config struct {
	ServiceName string
	Env         string // "dev", "uat", "prod"
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	// Supplier endpoint. When AWS secrets are enabled the endpoint and
	// token come from Secrets Manager; these act as the static fallback.
	SupplierURL     string
	SupplierToken   string
	SupplierTimeout time.Duration

	// Retry policy for transient supplier failures.
	RetryMaxAttempts int
	RetryBackoffBase time.Duration

	// Outbound pacing.
	RateLimitRPS   int
	RateLimitBurst int

	// Secrets Manager. Empty region disables the backend.
	AWSRegion       string
	SecretsCacheTTL time.Duration

	// Persistence. Empty PostgresURL runs the store redis-only.
	PostgresURL string
	RedisAddr   string
	RedisDB     int

	PGMaxConns        int
	PGMinConns        int
	PGMaxConnLife     time.Duration
	PGMaxConnIdle     time.Duration
	PGHealthCheckFreq time.Duration

	// Eventing. Empty NATSURL disables event publishing.
	NATSURL string

	// Advertised base URL for the agent card.
	PublicURL string
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:       pkgconfig.GetEnv("SERVICE_NAME", "buyer-agent"),
		Env:               pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:          pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:              pkgconfig.GetEnvInt("BUYER_PORT", 9100),
		HTTPReadTimeout:   pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:  pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:   pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:     pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		SupplierURL:       pkgconfig.GetEnv("SUPPLIER_URL", "http://localhost:9101/a2a"),
		SupplierToken:     pkgconfig.GetEnv("SUPPLIER_TOKEN", "test-token"),
		SupplierTimeout:   pkgconfig.GetEnvDuration("SUPPLIER_TIMEOUT", 10*time.Second),
		RetryMaxAttempts:  pkgconfig.GetEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBackoffBase:  pkgconfig.GetEnvDuration("RETRY_BACKOFF_BASE", 200*time.Millisecond),
		RateLimitRPS:      pkgconfig.GetEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    pkgconfig.GetEnvInt("RATE_LIMIT_BURST", 20),
		AWSRegion:         pkgconfig.GetEnv("AWS_REGION", ""),
		SecretsCacheTTL:   pkgconfig.GetEnvDuration("SECRETS_CACHE_TTL", 5*time.Minute),
		PostgresURL:       pkgconfig.GetEnv("POSTGRES_URL", ""),
		RedisAddr:         pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           pkgconfig.GetEnvInt("REDIS_DB", 0),
		PGMaxConns:        pkgconfig.GetEnvInt("PG_MAX_CONNS", 10),
		PGMinConns:        pkgconfig.GetEnvInt("PG_MIN_CONNS", 2),
		PGMaxConnLife:     pkgconfig.GetEnvDuration("PG_MAX_CONN_LIFETIME", time.Hour),
		PGMaxConnIdle:     pkgconfig.GetEnvDuration("PG_MAX_CONN_IDLE", 30*time.Minute),
		PGHealthCheckFreq: pkgconfig.GetEnvDuration("PG_HEALTHCHECK_PERIOD", time.Minute),
		NATSURL:           pkgconfig.GetEnv("NATS_URL", ""),
		PublicURL:         pkgconfig.GetEnv("PUBLIC_URL", "http://localhost:9100"),
	}
}
