// Package metrics exposes Prometheus collectors for the query pipeline and HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crypto_dash"

// Job outcomes recorded by ObserveJob.
const (
	OutcomeSucceeded       = "succeeded"
	OutcomeSubmitFailed    = "submit_failed"
	OutcomeTerminalFailure = "terminal_failure"
	OutcomeStatusFailed    = "status_failed"
	OutcomeTimedOut        = "timed_out"
	OutcomeCanceled        = "canceled"
	OutcomeFetchFailed     = "fetch_failed"
)

// Metrics groups every collector the service records. A nil *Metrics is a no-op.
type Metrics struct {
	jobs           *prometheus.CounterVec
	statusChecks   prometheus.Histogram
	malformedCells *prometheus.CounterVec
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_jobs_total",
			Help:      "Number of query jobs partitioned by outcome.",
		}, []string{"outcome"}),
		statusChecks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_status_checks",
			Help:      "Status checks issued per query job.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		malformedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_cells_total",
			Help:      "Result cells coerced to zero partitioned by column and reason.",
		}, []string{"column", "reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests partitioned by status code, method and HTTP path.",
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_milliseconds",
			Help:      "Time spent on the request partitioned by status code, method and HTTP path.",
			Buckets:   []float64{50, 300, 500, 1000, 5000, 15000, 30000},
		}, []string{"code", "method", "path"}),
	}
	reg.MustRegister(m.jobs, m.statusChecks, m.malformedCells, m.requests, m.latency)
	return m
}

// ObserveJob records the outcome of one query job and how many checks it took.
func (m *Metrics) ObserveJob(outcome string, statusChecks int) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
	if statusChecks > 0 {
		m.statusChecks.Observe(float64(statusChecks))
	}
}

// MalformedCell records a result cell that could not be parsed.
func (m *Metrics) MalformedCell(column, reason string) {
	if m == nil {
		return
	}
	m.malformedCells.WithLabelValues(column, reason).Inc()
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())
		m.requests.WithLabelValues(code, r.Method, path).Inc()
		m.latency.WithLabelValues(code, r.Method, path).Observe(float64(time.Since(start).Milliseconds()))
	}
	return http.HandlerFunc(fn)
}
