package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harborview-pms/harborview/internal/app"
	"github.com/harborview-pms/harborview/internal/billing"
	"github.com/harborview-pms/harborview/internal/frontdesk"
	"github.com/harborview-pms/harborview/internal/observability"
	"github.com/harborview-pms/harborview/internal/platform/cache"
	"github.com/harborview-pms/harborview/internal/platform/db"
	"github.com/harborview-pms/harborview/internal/pos"
	"github.com/harborview-pms/harborview/internal/rooms"
	"github.com/harborview-pms/harborview/internal/shared"
	"github.com/harborview-pms/harborview/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
		// Balance lookups fall back to the database when the cache is
		// down, so a missing Redis does not block startup.
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	billingRepo := billing.NewRepository(pool)
	reconciler := billing.NewReconciler(billingRepo, logger, metrics)
	billingCache := billing.NewCache(redisClient, cfg.BalanceCacheTTL)
	billingService := billing.NewService(billingRepo, reconciler, billingCache, audit, logger)

	roomsRepo := rooms.NewRepository(pool)
	roomsService := rooms.NewService(roomsRepo)

	frontdeskRepo := frontdesk.NewRepository(pool)
	frontdeskService := frontdesk.NewService(frontdeskRepo, roomsService, billingRepo, reconciler, billingCache, audit, logger)

	posRepo := pos.NewRepository(pool)
	posService := pos.NewService(posRepo, billingRepo, reconciler, billingCache, idempotency, audit, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Warn("init job client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
	}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		RoomsHandler:     rooms.NewHandler(logger, roomsService),
		FrontdeskHandler: frontdesk.NewHandler(logger, frontdeskService),
		POSHandler:       pos.NewHandler(logger, posService),
		BillingHandler:   billing.NewHandler(logger, billingService),
		JobHandler:       jobs.NewHandler(inspector, jobClient, logger),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
