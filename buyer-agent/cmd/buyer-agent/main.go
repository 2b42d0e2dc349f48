package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/partsgrid/agents/internal/rate"
	"github.com/partsgrid/agents/internal/retry"
	"github.com/partsgrid/agents/pkg/logger"
	pkgsecrets "github.com/partsgrid/agents/pkg/secrets"
	"github.com/partsgrid/agents/pkg/utils"

	"github.com/partsgrid/agents/buyer-agent/internal/a2a"
	"github.com/partsgrid/agents/buyer-agent/internal/api"
	"github.com/partsgrid/agents/buyer-agent/internal/orchestrator"
	"github.com/partsgrid/agents/buyer-agent/internal/publisher"
	"github.com/partsgrid/agents/buyer-agent/internal/secrets"
	"github.com/partsgrid/agents/buyer-agent/internal/store"
	"github.com/partsgrid/agents/buyer-agent/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [buyer-agent]...")

	// --- Store ---
	repo, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.PostgresURL, store.PGPoolConfig{
		MaxConns:          int32(cfg.PGMaxConns),
		MinConns:          int32(cfg.PGMinConns),
		MaxConnLifetime:   cfg.PGMaxConnLife,
		MaxConnIdleTime:   cfg.PGMaxConnIdle,
		HealthCheckPeriod: cfg.PGHealthCheckFreq,
	}, logger.L())
	if err != nil {
		logg.Fatalw("failed to initialize store", "error", err)
	}
	defer repo.Close()
	if cfg.PostgresURL != "" {
		logg.Infow("store connected", "postgres", utils.MaskDSN(cfg.PostgresURL), "redis", cfg.RedisAddr)
	} else {
		logg.Infow("store running redis-only", "redis", cfg.RedisAddr)
	}

	// --- Supplier endpoint resolution ---
	var provider pkgsecrets.Provider
	if cfg.AWSRegion != "" {
		provider, err = pkgsecrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to initialize secrets provider", "error", err)
		}
	}
	fallback := &a2a.SupplierConfig{Endpoint: cfg.SupplierURL, Token: cfg.SupplierToken}
	resolver := secrets.NewResolver(logger.L(), provider, secrets.SecretName(cfg.Env), cfg.SecretsCacheTTL, fallback)

	cleanerStop := make(chan struct{})
	defer close(cleanerStop)
	go resolver.StartCleaner(time.Minute, cleanerStop)

	// --- A2A client ---
	limiter := rate.New(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	client := a2a.NewClient(logger.L(), resolver, cfg.SupplierTimeout, limiter)

	// --- Event publishing ---
	var events *publisher.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Name(cfg.ServiceName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		events, err = publisher.New(nc, cfg.ServiceName, logger.L())
		if err != nil {
			logg.Fatalw("failed to initialize publisher", "error", err)
		}
		defer events.Close()
	}

	// --- Orchestrator ---
	policy := retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Backoff:     retry.ExponentialBackoff(cfg.RetryBackoffBase),
	}
	orch := orchestrator.New(logger.L(), client, repo, policy,
		orchestrator.WithEventSink(events))

	// --- Fiber HTTP server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := api.NewHandler(logger.L(), orch)
	card := api.AgentCard{
		Name:         "buyer-concierge",
		Version:      "v1",
		Description:  "Accepts BOMs, orchestrates supplier quoting, and tracks RFQ outcomes.",
		URL:          cfg.PublicURL + "/api/v1/rfqs",
		Capabilities: []string{"rfq.submit", "rfq.status"},
	}
	api.RegisterRoutes(app, handler, card, repo)

	go func() {
		logg.Infof("REST API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[buyer-agent] running",
		"env", cfg.Env,
		"supplier_url", cfg.SupplierURL,
		"retry_max_attempts", cfg.RetryMaxAttempts)

	<-ctx.Done()
	logg.Info("shutting down [buyer-agent]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
}
