package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aweme-labs/aweme-backend/api/routes"
	"github.com/aweme-labs/aweme-backend/internal/auth"
	"github.com/aweme-labs/aweme-backend/internal/billing"
	"github.com/aweme-labs/aweme-backend/internal/users"
	stripewebhook "github.com/aweme-labs/aweme-backend/internal/webhooks/stripe"
	"github.com/aweme-labs/aweme-backend/pkg/config"
	"github.com/aweme-labs/aweme-backend/pkg/db"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/aweme-labs/aweme-backend/pkg/metrics"
	"github.com/aweme-labs/aweme-backend/pkg/migrate"
	"github.com/aweme-labs/aweme-backend/pkg/redis"
	"github.com/aweme-labs/aweme-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	catalog, err := billing.NewCatalog(cfg.Billing)
	if err != nil {
		logg.Error(context.Background(), "failed to build plan catalog", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	billingService, err := billing.NewService(billing.ServiceParams{
		Catalog:           catalog,
		Repo:              billingRepo,
		Users:             userRepo,
		StripeClient:      stripeClient,
		TransactionRunner: dbClient,
		StripeConfig:      cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:          userRepo,
		Billing:           billingService,
		TransactionRunner: dbClient,
		JWTConfig:         cfg.JWT,
		PasswordConfig:    cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Catalog:           catalog,
		BillingRepo:       billingRepo,
		StripeClient:      stripeClient,
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.IdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DBPinger:       dbClient,
			RedisClient:    redisClient,
			AuthService:    authService,
			UserRepo:       userRepo,
			BillingService: billingService,
			StripeClient:   stripeClient,
			WebhookService: webhookService,
			WebhookGuard:   webhookGuard,
			WebhookMetrics: webhookMetrics,
			PromGatherer:   promRegistry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
