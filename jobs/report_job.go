package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
	jobmetrics "github.com/odyssey-erp/order-review/internal/jobs"
)

// ReportJob loads a fresh review session, applies the payload criteria and
// writes the exported document to the sink.
type ReportJob struct {
	Store    acceptedorders.Store
	Exporter *export.Exporter
	Sink     export.Sink
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewReportJob initialises the report handler. sink may be nil, in which case
// the document is rendered and discarded.
func NewReportJob(store acceptedorders.Store, exporter *export.Exporter, sink export.Sink, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportJob {
	return &ReportJob{
		Store:    store,
		Exporter: exporter,
		Sink:     sink,
		Logger:   logger,
		Metrics:  metrics,
		clock:    time.Now,
	}
}

// Handle executes one report run.
func (j *ReportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil || j.Exporter == nil {
		return errors.New("accepted orders report: handler not configured")
	}
	var payload ReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	format, err := export.ParseFormat(payload.Format)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	cutoff, err := acceptedorders.ParseCutoff(payload.DeliveryCutoff)
	if err != nil {
		return fmt.Errorf("delivery cutoff: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskAcceptedOrdersReport)
	var resultErr error
	defer func() { _ = tracker.End(resultErr) }()

	logger := j.logger().With(slog.String("format", string(format)))
	session := acceptedorders.NewSession(j.Store)
	if err := session.Refresh(ctx); err != nil {
		resultErr = err
		logger.Error("load accepted orders", slog.Any("error", err))
		return resultErr
	}
	session.SetCriteria(acceptedorders.Criteria{
		Category:       acceptedorders.Category(payload.Category),
		DeliveryCutoff: cutoff,
		SupplierSearch: payload.SupplierSearch,
	})

	exporter := j.Exporter
	if payload.RequireRows != nil {
		exporter = exporter.WithRequireRows(*payload.RequireRows)
	}
	doc, err := exporter.Export(ctx, session.View(), j.now(), format)
	if err != nil {
		resultErr = err
		if errors.Is(err, acceptedorders.ErrEmptyReport) {
			logger.Warn("report skipped, no matching orders")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		logger.Error("export report", slog.Any("error", err))
		return resultErr
	}
	if payload.Name != "" {
		doc.Name = payload.Name + "." + string(format)
	}

	location := "discarded"
	if j.Sink != nil {
		location, err = j.Sink.Put(ctx, doc)
		if err != nil {
			resultErr = err
			logger.Error("store report", slog.Any("error", err))
			return resultErr
		}
	}
	j.Metrics.AddReportRows(string(format), doc.Rows)
	logger.Info("report written",
		slog.String("location", location),
		slog.Int("rows", doc.Rows),
		slog.Int("bytes", len(doc.Body)),
	)
	return nil
}

func (j *ReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAcceptedOrdersReport))
	}
	return slog.Default().With(slog.String("job", TaskAcceptedOrdersReport))
}

func (j *ReportJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
