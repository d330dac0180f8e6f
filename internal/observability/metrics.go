package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	exports         *prometheus.CounterVec
	sessions        prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_store_operations_total",
		Help: "Operasi koleksi accepted orders berdasarkan jenis dan hasil.",
	}, []string{"op", "outcome"})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_report_exports_total",
		Help: "Ekspor laporan accepted orders berdasarkan format dan hasil.",
	}, []string{"format", "outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "odyssey_review_sessions",
		Help: "Jumlah sesi review yang aktif.",
	})
	registry.MustRegister(requests, duration, storeOps, exports, sessions)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		storeOps:        storeOps,
		exports:         exports,
		sessions:        sessions,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveStoreOp mencatat satu operasi store.
func (m *Metrics) ObserveStoreOp(op, outcome string) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, outcome).Inc()
}

// ObserveExport mencatat satu percobaan ekspor laporan.
func (m *Metrics) ObserveExport(format, outcome string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, outcome).Inc()
}

// SetReviewSessions memperbarui jumlah sesi review aktif.
func (m *Metrics) SetReviewSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
