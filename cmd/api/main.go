package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Digigit24/kumsserpbackend-sub001/api/routes"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/indents"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/inventory"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/issues"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/receipts"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/instance"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/metrics"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/migrate"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/redis"
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
		Format:      cfg.App.LogFormat,
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

	var (
		idempotencyStore redis.ReplayStore
		redisPinger      redis.Pinger
	)
	if cfg.Redis.Enabled() {
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
		idempotencyStore = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency keys disabled")
	}

	gate, err := gateFromConfig(cfg.FeatureFlags.GateMode)
	if err != nil {
		logg.Error(context.Background(), "invalid approval gate", err)
		os.Exit(1)
	}

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ledger, err := inventory.NewService(inventory.ServiceParams{
		Repo:            inventory.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Gate:            gate,
		Outbox:          events,
		Metrics:         metrics.NewLedgerMetrics(prometheus.DefaultRegisterer),
		Logger:          logg,
		LockWaitTimeout: cfg.Ledger.LockWaitTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory ledger", err)
		os.Exit(1)
	}

	indentService, err := indents.NewService(indents.NewRepository(dbClient.DB()), dbClient, gate, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create indent service", err)
		os.Exit(1)
	}

	issueRepo := issues.NewRepository(dbClient.DB())
	issueService, err := issues.NewService(issues.ServiceParams{
		Repo:    issueRepo,
		Tx:      dbClient,
		Indents: indentService,
		Ledger:  ledger,
		Gate:    gate,
		Outbox:  events,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create issue service", err)
		os.Exit(1)
	}

	receiptService, err := receipts.NewService(issueRepo, dbClient, gate, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"gate":     cfg.FeatureFlags.GateMode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, idempotencyStore, redisPinger, routes.Services{
			Indents:  indentService,
			Issues:   issueService,
			Receipts: receiptService,
			Ledger:   ledger,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// gateFromConfig maps KUMSS_APPROVAL_GATE onto an approval gate.
func gateFromConfig(mode string) (approval.Gate, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "roles":
		return approval.NewRoleGate(approval.DefaultPolicy()), nil
	case "allow":
		return approval.AllowAll{}, nil
	case "deny":
		return approval.DenyAll{Reason: "approvals disabled"}, nil
	default:
		return nil, fmt.Errorf("unknown gate mode %q", mode)
	}
}
