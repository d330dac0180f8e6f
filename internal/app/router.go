package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/order-review/internal/acceptedorders/store"
	"github.com/odyssey-erp/order-review/internal/observability"
	"github.com/odyssey-erp/order-review/internal/review"
	"github.com/odyssey-erp/order-review/jobs"
	"github.com/odyssey-erp/order-review/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	StoreHandler  *store.Handler
	ReviewHandler *review.Handler
	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults. Nil handlers are
// not mounted.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.StoreHandler != nil {
		r.Route("/acceptedOrders", params.StoreHandler.MountRoutes)
	}
	if params.ReviewHandler != nil {
		r.Route("/review", params.ReviewHandler.MountRoutes)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
