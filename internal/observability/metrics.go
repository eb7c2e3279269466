// Package observability exposes Prometheus metrics for the HTTP surface and
// the ingestion pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	batchesTotal  *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	exposureRuns  prometheus.Counter
}

// NewMetrics initializes the registry with HTTP and ingestion metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_ingest_batches_total",
		Help: "Ingestion batches by use case and outcome.",
	}, []string{"use_case", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_ingest_rows_total",
		Help: "Ingested rows by use case and disposition.",
	}, []string{"use_case", "disposition"})
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerline_ingest_batch_duration_seconds",
		Help:    "Wall time spent processing one ingestion batch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"use_case"})
	exposureRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_exposure_recomputes_total",
		Help: "Per-distributor exposure recomputation runs.",
	})
	registry.MustRegister(requests, duration, batches, rows, batchDuration, exposureRuns)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		batchesTotal:    batches,
		rowsTotal:       rows,
		batchDuration:   batchDuration,
		exposureRuns:    exposureRuns,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// ObserveBatch records the outcome and duration of one ingestion batch.
// Safe on a nil receiver so services can run without metrics in tests.
func (m *Metrics) ObserveBatch(useCase, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(useCase, outcome).Inc()
	m.batchDuration.WithLabelValues(useCase).Observe(elapsed.Seconds())
}

// CountRows records per-row dispositions within a batch.
func (m *Metrics) CountRows(useCase, disposition string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsTotal.WithLabelValues(useCase, disposition).Add(float64(n))
}

// CountExposureRun records one exposure recomputation.
func (m *Metrics) CountExposureRun() {
	if m == nil {
		return
	}
	m.exposureRuns.Inc()
}

// Registerer exposes the registry for custom metric registration.
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
