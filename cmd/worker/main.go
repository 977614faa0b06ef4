package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aurora-books/aurora-books/internal/app"
	"github.com/aurora-books/aurora-books/internal/assets"
	"github.com/aurora-books/aurora-books/internal/ledger/accounts"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/platform/cache"
	"github.com/aurora-books/aurora-books/internal/platform/db"
	"github.com/aurora-books/aurora-books/internal/posting"
	"github.com/aurora-books/aurora-books/internal/shared"
	"github.com/aurora-books/aurora-books/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	accountRepo := accounts.NewRepository(pool)
	mappingRepo := purposes.NewRepository(pool)
	if redisClient != nil {
		mappingRepo = purposes.NewCachedRepository(mappingRepo, redisClient, cfg.MappingCacheTTL)
	}
	resolver := purposes.NewResolver(mappingRepo, accountRepo, true)

	engine := posting.NewEngine(posting.NewPGStore(pool), resolver, shared.NewAuditLogger(pool), logger)

	idemStore := shared.NewIdempotencyStore(pool)
	assetService := assets.NewService(
		assets.NewAssetRepository(pool),
		assets.NewRecordRepository(pool),
		engine,
		idemStore,
		logger,
	)

	depreciationJob := jobs.NewDepreciationRunJob(assetService, pool, logger)
	integrityJob := jobs.NewGLIntegrityJob(pool, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idemStore, cfg.IdempotencyRetention, logger)

	depreciationTask, err := jobs.NewDepreciationRunTask(jobs.DepreciationRunPayload{})
	if err != nil {
		logger.Error("build depreciation task", slog.Any("error", err))
		os.Exit(1)
	}
	integrityTask, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{WindowDays: 7})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDepreciationRun, Handler: depreciationJob.Handle},
			{Type: jobs.TaskGLIntegrityScan, Handler: integrityJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DepreciationCron, Task: depreciationTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 2 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "30 4 * * 0", Task: cleanupTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
