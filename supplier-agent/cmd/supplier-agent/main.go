package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/partsgrid/agents/pkg/logger"
	"github.com/partsgrid/agents/supplier-agent/internal/api"
	"github.com/partsgrid/agents/supplier-agent/internal/catalog"
	"github.com/partsgrid/agents/supplier-agent/internal/pricing"
	"github.com/partsgrid/agents/supplier-agent/internal/security"
	"github.com/partsgrid/agents/supplier-agent/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [supplier-agent]...")

	defaults := catalog.Defaults{
		UnitPrice:    decimal.RequireFromString(cfg.FallbackUnitPrice),
		LeadTimeDays: cfg.FallbackLeadTime,
	}

	// --- Catalog ---
	var cat catalog.Catalog
	var health api.HealthChecker
	switch cfg.CatalogBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		rc := catalog.NewRedis(rdb, defaults, logger.L())
		if err := rc.SeedIfEmpty(ctx, catalog.Seed()); err != nil {
			logg.Fatalw("failed to seed catalog", "error", err)
		}
		cat = rc
		health = rc
	default:
		cat = catalog.NewStatic(catalog.Seed(), defaults)
	}

	// --- Pricing engine ---
	engine := pricing.New(cat, cfg.SupplierID, cfg.QuoteValidity,
		pricing.WithLogger(logger.L()))

	// --- Fiber HTTP server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := api.NewA2AHandler(logger.L(), engine)
	card := api.AgentCard{
		Name:         "supplier-quoter",
		Version:      "v1",
		Description:  "Prices RFQs against the parts catalog and returns binding quotes.",
		URL:          cfg.PublicURL + "/a2a",
		Capabilities: []string{"SubmitRFQ"},
	}
	verifier := security.StaticTokenVerifier{Token: cfg.A2AToken, CallerID: "buyer-agent"}

	api.RegisterRoutes(app, logger.L(), handler, verifier, card, health)

	go func() {
		logg.Infof("A2A endpoint listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[supplier-agent] running",
		"env", cfg.Env,
		"catalog", cfg.CatalogBackend,
		"supplier_id", cfg.SupplierID)

	<-ctx.Done()
	logg.Info("shutting down [supplier-agent]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
}
