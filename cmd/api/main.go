package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kamishop/backend/api/routes"
	"github.com/kamishop/backend/internal/cards"
	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/internal/products"
	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/migrate"
	"github.com/kamishop/backend/pkg/outbox"
	"github.com/kamishop/backend/pkg/redis"
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

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	cardsRepo := cards.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())

	cardsSvc, err := cards.NewService(cardsRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cards service", err)
		os.Exit(1)
	}

	productsSvc, err := products.NewService(productsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(dbClient.DB()),
		Catalog:   productsRepo,
		Allocator: cardsSvc,
		CardRead:  cardsRepo,
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, ordersSvc, cardsSvc, productsSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
