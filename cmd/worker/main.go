package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/order-review/internal/acceptedorders/client"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
	"github.com/odyssey-erp/order-review/internal/app"
	jobmetrics "github.com/odyssey-erp/order-review/internal/jobs"
	"github.com/odyssey-erp/order-review/jobs"
	"github.com/odyssey-erp/order-review/report"
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

	location, err := cfg.ReportLocation()
	if err != nil {
		logger.Error("report timezone", slog.Any("error", err))
		os.Exit(1)
	}

	exporter := export.New(export.Options{
		Location:    location,
		DateLayout:  cfg.ReportDateLayout,
		RequireRows: cfg.ReportRequireRows,
	}, report.NewClient(cfg.GotenbergURL, nil))

	sink, err := newSink(ctx, cfg)
	if err != nil {
		logger.Error("init export sink", slog.Any("error", err))
		os.Exit(1)
	}

	reportJob := jobs.NewReportJob(
		client.New(cfg.StoreBaseURL, nil),
		exporter,
		sink,
		logger,
		jobmetrics.NewMetrics(nil),
	)

	var cron []jobs.CronRegistration
	if cfg.ReportCron != "" {
		task, err := jobs.NewReportTask(jobs.ReportPayload{})
		if err != nil {
			logger.Error("build report task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.ReportCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAcceptedOrdersReport, Handler: reportJob.Handle},
		},
		Cron:     cron,
		Location: location,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("sink", cfg.ExportSink), slog.String("store", cfg.StoreBaseURL))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func newSink(ctx context.Context, cfg *app.Config) (export.Sink, error) {
	switch cfg.ExportSink {
	case app.ExportSinkFile:
		return export.NewFileSink(cfg.ExportDir), nil
	case app.ExportSinkS3:
		return export.NewS3Sink(ctx, export.S3Config{
			Region:    cfg.ExportS3Region,
			Bucket:    cfg.ExportS3Bucket,
			Prefix:    cfg.ExportS3Prefix,
			Endpoint:  cfg.ExportS3Endpoint,
			PathStyle: cfg.ExportS3PathStyle,
		})
	default:
		return nil, nil
	}
}
