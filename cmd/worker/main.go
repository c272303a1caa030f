package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/vigilpos/vigilpos/internal/app"
	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/fraud"
	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/periods"
	"github.com/vigilpos/vigilpos/internal/pin"
	"github.com/vigilpos/vigilpos/internal/platform/cache"
	"github.com/vigilpos/vigilpos/internal/platform/db"
	"github.com/vigilpos/vigilpos/internal/sessions"
	"github.com/vigilpos/vigilpos/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	recorder := audit.NewPGRecorder(pool)
	verifier := pin.NewBcryptVerifier(pool)

	periodsService := periods.NewService(
		periods.NewRepository(pool),
		periods.NewPeriodCache(cfg.PeriodCacheTTL),
		verifier, recorder, logger)

	sessionsService := sessions.NewService(
		sessions.NewRepository(pool),
		sessions.NewRedisNotifier(redisClient),
		recorder, logger,
		cfg.SessionExpiry(), cfg.EnforceOneDevicePerUser)

	fraudJob := jobs.NewFraudSignalJob(pool, logger, metrics)
	autoLockJob := jobs.NewPeriodAutoLockJob(periodsService, pool, logger)
	sweepJob := jobs.NewSessionSweepJob(sessionsService, logger)

	autoLockTask, err := jobs.NewPeriodAutoLockTask(jobs.PeriodAutoLockPayload{})
	if err != nil {
		logger.Error("build auto lock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: fraud.TaskTypeSignal, Handler: fraudJob.Handle},
			{Type: jobs.TaskPeriodAutoLock, Handler: autoLockJob.Handle},
			{Type: jobs.TaskSessionSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 0 * * *", Task: autoLockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: jobs.NewSessionSweepTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
