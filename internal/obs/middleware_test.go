package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seller-analytics/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("sellers", []float64{10, 1}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewReportMetrics("sellers", registry)
	second := obs.NewReportMetrics("sellers", registry)

	first.ObserveRun("ok", 3*time.Millisecond)
	second.ObserveRun("ok", time.Millisecond)
	require.Equal(t, 2.0, testutil.ToFloat64(second.Runs.WithLabelValues("ok")))

	var nilMetrics *obs.ReportMetrics
	nilMetrics.ObserveWarning("unknown_seller")
	nilMetrics.ObserveCache("hit")
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV(" "))
	require.Equal(t, []float64{5, 50}, obs.ParseBucketsCSV("5, x, -1, 0, 50"))
	require.Equal(t, []float64{5}, obs.ParseBucketsCSV("5,NaN,+Inf"))
}

func TestHTTPMetricsToleratesDuplicateBuckets(t *testing.T) {
	var metrics *obs.HTTPMetrics
	require.NotPanics(t, func() {
		metrics = obs.NewHTTPMetrics("sellers", obs.ParseBucketsCSV("5,5,1,1"), prometheus.NewRegistry())
	})
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, testutil.CollectAndCount(metrics.ReqDur))
}

func TestRequestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/sellers", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http_request", line["message"])
	require.Equal(t, "POST", line["method"])
	require.Equal(t, "/api/v1/analytics/sellers", line["route"])
	require.EqualValues(t, 200, line["status"])
	require.EqualValues(t, 2, line["bytes"])
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
