package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/cron"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/inventory"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/instance"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/metrics"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/migrate"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/idempotency"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	exitOn(logg, "failed to load config", err)

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	exitOn(logg, "failed to bootstrap database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	exitOn(logg, "failed to run dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	exitOn(logg, "failed to bootstrap redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	ledger, err := inventory.NewService(inventory.ServiceParams{
		Repo:            inventory.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Gate:            approval.NewRoleGate(approval.DefaultPolicy()),
		Outbox:          outboxService,
		Logger:          logg,
		LockWaitTimeout: cfg.Ledger.LockWaitTimeout,
	})
	exitOn(logg, "failed to create inventory ledger", err)

	alerts, err := idempotency.NewManager(redisClient, cfg.Cron.Interval*4)
	exitOn(logg, "failed to create alert guard", err)

	lowStockJob, err := cron.NewLowStockJob(cron.LowStockJobParams{
		Logger: logg,
		DB:     dbClient,
		Ledger: ledger,
		Outbox: outboxService,
		Alerts: alerts,
	})
	exitOn(logg, "failed to create low stock job", err)
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.Retention,
	})
	exitOn(logg, "failed to create outbox retention job", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	exitOn(logg, "failed to create cron lock", err)

	registry := cron.NewRegistry()
	exitOn(logg, "failed to register low stock job", registry.Register(lowStockJob))
	exitOn(logg, "failed to register outbox retention job", registry.Register(retentionJob, cron.EveryNthCycle(cfg.Cron.RetentionEvery)))

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	exitOn(logg, "failed to create cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"instance":    instance.ID(),
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}

// exitOn logs err against a fresh context and terminates the process.
func exitOn(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
