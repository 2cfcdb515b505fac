package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kamishop/backend/internal/hooks"
	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/internal/products"
	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/metrics"
	"github.com/kamishop/backend/pkg/migrate"
	"github.com/kamishop/backend/pkg/outbox"
	"github.com/kamishop/backend/pkg/outbox/idempotency"
	"github.com/kamishop/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "hook-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "hook-worker",
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

	guard, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	hookMetrics := metrics.NewHookMetrics(prometheus.DefaultRegisterer)
	dispatcher, err := hooks.NewDispatcher(cfg.Hooks, logg, hookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create hook dispatcher", err)
		os.Exit(1)
	}

	registry := hooks.NewRegistry(hooks.NewDefaultStrategy())
	registry.Register(hooks.NewNovelStrategy(cfg.Hooks))

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Orders:     orders.NewRepository(dbClient.DB()),
		Products:   products.NewRepository(dbClient.DB()),
		Registry:   registry,
		Dispatcher: dispatcher,
		Extractor:  hooks.Extractor{},
		Guard:      guard,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create hook worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting hook worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "hook worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "hook worker shutting down gracefully")
}
