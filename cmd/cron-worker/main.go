package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/flashdealz-backend/internal/cron"
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
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	refreshJob, err := cron.NewStatusRefreshJob(service, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create status refresh job", err)
		os.Exit(1)
	}
	preloadJob, err := cron.NewStockPreloadJob(service, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock preload job", err)
		os.Exit(1)
	}

	refreshLoop, err := newLoop(logg, redisClient, metricsCollector, cfg.Scheduler.LockTTL,
		"status-refresh", cfg.Scheduler.StatusRefreshInterval, refreshJob)
	if err != nil {
		logg.Error(context.Background(), "failed to create status refresh loop", err)
		os.Exit(1)
	}

	preloadLoop, err := newLoop(logg, redisClient, metricsCollector, cfg.Scheduler.LockTTL,
		"stock-preload", cfg.Scheduler.StockPreloadInterval, preloadJob)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock preload loop", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	var wg sync.WaitGroup
	loops := []*cron.Service{refreshLoop, preloadLoop}
	errCh := make(chan error, len(loops))
	for _, loop := range loops {
		wg.Add(1)
		go func(s *cron.Service) {
			defer wg.Done()
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}(loop)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newLoop(
	logg *logger.Logger,
	redisClient *redis.Client,
	collector *metrics.CronJobMetrics,
	lockTTL time.Duration,
	name string,
	interval time.Duration,
	job cron.Job,
) (*cron.Service, error) {
	lock, err := cron.NewLock(redisClient, name, lockTTL)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Lock:     lock,
		Metrics:  collector,
		Interval: interval,
		Jobs:     []cron.Job{job},
	})
}
