package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	m.ObserveBatch("invoices", "applied", 10*time.Millisecond)
	m.CountRows("invoices", "created", 3)
	m.CountExposureRun()

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, metricsReq)

	body := metricsRec.Body.String()
	require.True(t, strings.Contains(body, "ledgerline_http_requests_total"))
	require.True(t, strings.Contains(body, "ledgerline_ingest_batches_total"))
	require.True(t, strings.Contains(body, "ledgerline_exposure_recomputes_total"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveBatch("invoices", "applied", time.Millisecond)
	m.CountRows("invoices", "created", 1)
	m.CountExposureRun()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
