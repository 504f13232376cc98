package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/cron"
	"github.com/angelmondragon/restaurant-backend/internal/locks"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/metrics"
	"github.com/angelmondragon/restaurant-backend/pkg/migrate"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:%s"

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
		Format:      cfg.App.LogFormat,
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

	orderLocker, err := locks.NewRedisLocker(redisClient, "orders")
	if err != nil {
		logg.Error(context.Background(), "failed to create order locker", err)
		os.Exit(1)
	}
	cronLocker, err := locks.NewRedisLocker(redisClient, "cron")
	if err != nil {
		logg.Error(context.Background(), "failed to create cron locker", err)
		os.Exit(1)
	}
	lock, err := cron.NewLeaseLock(cronLocker, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	taxRate, err := decimal.NewFromString(cfg.Pricing.TaxRate)
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	orderRepo := outstandingorders.NewRepository(conn)
	itemRepo := constructeditems.NewRepository(conn)
	orders, err := outstandingorders.NewService(outstandingorders.ServiceParams{
		Tx:          dbClient,
		Repo:        orderRepo,
		Items:       itemRepo,
		Offers:      offers.NewRepository(conn),
		Snapshotter: outstandingorders.NewSnapshotter(orderRepo, itemRepo, catalog.NewRepository(conn), taxRate),
		Locker:      orderLocker,
		Outbox:      outbox.NewService(outboxRepo, logg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outstanding order service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	registry := cron.NewRegistry()
	abandoned, err := cron.NewAbandonedOrdersJob(cron.AbandonedOrdersJobParams{
		Logger:    logg,
		Reader:    orderRepo,
		Abandoner: orders,
		TTL:       cfg.Cron.AbandonedOrderTTL,
		Metrics:   metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create abandoned orders job", err)
		os.Exit(1)
	}
	stuck, err := cron.NewStuckChargesJob(cron.StuckChargesJobParams{
		Logger:  logg,
		Reader:  checkout.NewRepository(conn),
		Grace:   cfg.Cron.StuckChargeGracePeriod,
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stuck charges job", err)
		os.Exit(1)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.Retention,
		Metrics:    metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	registry.Register(abandoned, cfg.Cron.AbandonedOrderEvery)
	registry.Register(stuck, cfg.Cron.StuckChargeEvery)
	registry.Register(retention, cfg.Cron.OutboxRetentionEvery)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Tick:     cfg.Cron.Tick,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
