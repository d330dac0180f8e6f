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

	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/store"
	"github.com/odyssey-erp/order-review/internal/app"
	"github.com/odyssey-erp/order-review/internal/observability"
	"github.com/odyssey-erp/order-review/internal/platform/cache"
	"github.com/odyssey-erp/order-review/internal/platform/db"
	"github.com/odyssey-erp/order-review/internal/review"
	"github.com/odyssey-erp/order-review/jobs"
	"github.com/odyssey-erp/order-review/report"
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
	metrics := observability.NewMetrics()

	var repo store.Repository
	switch cfg.StoreDriver {
	case app.StoreDriverMemory:
		repo = store.NewMemoryRepository()
	default:
		dbpool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		pgRepo := store.NewPGRepository(dbpool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Error("ensure schema", slog.Any("error", err))
			os.Exit(1)
		}
		repo = pgRepo
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, list cache disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	storeService := store.NewService(repo, store.NewCache(redisClient, cfg.StoreCacheTTL), logger)
	storeService.SetRecorder(metrics)
	storeHandler := store.NewHandler(logger, storeService)

	location, err := cfg.ReportLocation()
	if err != nil {
		logger.Error("report timezone", slog.Any("error", err))
		os.Exit(1)
	}
	reportClient := report.NewClient(cfg.GotenbergURL, nil)
	exporter := export.New(export.Options{
		Location:    location,
		DateLayout:  cfg.ReportDateLayout,
		RequireRows: cfg.ReportRequireRows,
	}, reportClient)
	exporter.SetRecorder(metrics)

	registry := review.NewRegistry(store.NewLocal(storeService), cfg.ReviewSessionTTL)
	registry.SetGauge(metrics)
	go registry.Run(ctx, time.Minute)
	reviewHandler := review.NewHandler(logger, registry, exporter, cfg.RateLimitPerMinute)

	reportHandler := report.NewHandler(reportClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Metrics:       metrics,
		StoreHandler:  storeHandler,
		ReviewHandler: reviewHandler,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
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
