package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vigilpos/vigilpos/internal/app"
	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/closing"
	"github.com/vigilpos/vigilpos/internal/compliance"
	"github.com/vigilpos/vigilpos/internal/credit"
	"github.com/vigilpos/vigilpos/internal/fraud"
	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/periods"
	"github.com/vigilpos/vigilpos/internal/pin"
	"github.com/vigilpos/vigilpos/internal/platform/cache"
	"github.com/vigilpos/vigilpos/internal/platform/db"
	"github.com/vigilpos/vigilpos/internal/rbac"
	"github.com/vigilpos/vigilpos/internal/sessions"
	"github.com/vigilpos/vigilpos/internal/stock"
	"github.com/vigilpos/vigilpos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	recorder := audit.NewPGRecorder(pool)
	emitter := fraud.NewAsynqEmitter(asynqClient)
	verifier := pin.NewBcryptVerifier(pool)

	resolver := rbac.NewResolver(rbac.NewRoleCache(), recorder, emitter, logger)
	guard := rbac.Middleware{Resolver: resolver}

	periodsService := periods.NewService(
		periods.NewRepository(pool),
		periods.NewPeriodCache(cfg.PeriodCacheTTL),
		verifier, recorder, logger)

	closingService := closing.NewService(
		closing.NewStore(pool),
		closing.NewRedisMirror(redisClient),
		cfg.ClosingGraceDays, logger)

	creditService := credit.NewService(credit.NewRepository(pool), recorder, logger)
	stockService := stock.NewService(verifier, recorder, emitter, logger)
	complianceService := compliance.NewService(cfg.NearExpiryDays)

	sessionsService := sessions.NewService(
		sessions.NewRepository(pool),
		sessions.NewRedisNotifier(redisClient),
		recorder, logger,
		cfg.SessionExpiry(), cfg.EnforceOneDevicePerUser)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		PeriodsHandler:     periods.NewHandler(logger, periodsService, metrics, guard),
		ClosingHandler:     closing.NewHandler(logger, closingService, metrics),
		CreditHandler:      credit.NewHandler(logger, creditService, metrics, guard),
		StockHandler:       stock.NewHandler(logger, stockService, metrics, guard),
		ComplianceHandler:  compliance.NewHandler(logger, complianceService, metrics),
		SessionsHandler:    sessions.NewHandler(logger, sessionsService, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, resolver, guard),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
