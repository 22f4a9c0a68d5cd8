package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/flashdealz-backend/api/controllers"
	"github.com/angelmondragon/flashdealz-backend/api/routes"
	"github.com/angelmondragon/flashdealz-backend/internal/flashsale"
	"github.com/angelmondragon/flashdealz-backend/internal/notifier"
	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/db"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
	"github.com/angelmondragon/flashdealz-backend/pkg/metrics"
	"github.com/angelmondragon/flashdealz-backend/pkg/pubsub"
	"github.com/angelmondragon/flashdealz-backend/pkg/redis"
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

	if cfg.DB.AutoMigrate && !cfg.App.IsDev() {
		logg.Warn(context.Background(), "auto-migrate is enabled outside dev")
	}

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

	emitter, err := notifier.NewNoop(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event emitter", err)
		os.Exit(1)
	}
	if cfg.GCP.ProjectID != "" && cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		emitter, err = notifier.New(psClient.FlashSalePublisher(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create event emitter", err)
			os.Exit(1)
		}
	}

	cache, err := flashsale.NewCache(redisClient, cfg.FlashSale)
	if err != nil {
		logg.Error(context.Background(), "failed to create flash-sale cache", err)
		os.Exit(1)
	}

	limiter, err := flashsale.NewRateLimiter(redisClient, cfg.FlashSale, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate limiter", err)
		os.Exit(1)
	}

	service, err := flashsale.NewService(
		flashsale.NewRepository(dbClient.DB()),
		dbClient,
		cache,
		limiter,
		emitter,
		metrics.NewFlashSaleMetrics(prometheus.DefaultRegisterer),
		logg,
		cfg.FlashSale,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create flash-sale service", err)
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
		Addr: addr,
		Handler: routes.New(routes.Deps{
			Config:  cfg,
			Logger:  logg,
			Service: service,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
