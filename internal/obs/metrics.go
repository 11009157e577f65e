package obs

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var defaultBucketsMs = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &HTTPMetrics{
		ReqTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})),
		ReqDur: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   bucketsOrDefault(buckets),
		}, []string{"method", "route"})),
		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		})),
	}
}

// ReportMetrics tracks seller report runs.
type ReportMetrics struct {
	Runs     *prometheus.CounterVec
	Warnings *prometheus.CounterVec
	Cache    *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewReportMetrics registers and returns the seller report collectors.
func NewReportMetrics(namespace string, reg prometheus.Registerer) *ReportMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &ReportMetrics{
		Runs: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_runs_total",
			Help:      "Seller report runs by outcome.",
		}, []string{"result"})),
		Warnings: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_warnings_total",
			Help:      "Purchase records and items skipped because a reference did not resolve.",
		}, []string{"kind"})),
		Cache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by outcome.",
		}, []string{"result"})),
		Duration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_ms",
			Help:      "Time spent computing a seller report in milliseconds.",
			Buckets:   []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
		})),
	}
}

// ObserveRun records a finished run. Nil receivers are ignored.
func (m *ReportMetrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result).Inc()
	m.Duration.Observe(DurationMillis(d))
}

// ObserveWarning counts a skipped reference of the given kind.
func (m *ReportMetrics) ObserveWarning(kind string) {
	if m == nil {
		return
	}
	m.Warnings.WithLabelValues(kind).Inc()
}

// ObserveCache counts a cache lookup outcome: hit, miss or error.
func (m *ReportMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.Cache.WithLabelValues(result).Inc()
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
// Invalid, non-finite and non-positive entries are dropped.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(csv, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func bucketsOrDefault(buckets []float64) []float64 {
	if len(buckets) == 0 {
		return defaultBucketsMs
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	// histogram bounds must be strictly increasing
	out := sorted[:1]
	for _, b := range sorted[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
		return c
	}
	panic(fmt.Errorf("register collector: %w", err))
}
