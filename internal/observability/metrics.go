package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	reconcilesTotal   *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	sweepDriftTotal   prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harborview_http_requests_total",
		Help: "Number of HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harborview_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "harborview_invoice_reconciles_total",
		Help: "Number of invoice balance reconciliations by result.",
	}, []string{"result"})
	reconcileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "harborview_invoice_reconcile_duration_seconds",
		Help:    "Duration of invoice balance reconciliations.",
		Buckets: prometheus.DefBuckets,
	})
	drift := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harborview_ledger_sweep_drift_total",
		Help: "Invoices whose stored aggregates differed from the recomputed values.",
	})
	registry.MustRegister(requests, duration, reconciles, reconcileDuration, drift)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		reconcilesTotal:   reconciles,
		reconcileDuration: reconcileDuration,
		sweepDriftTotal:   drift,
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

// ObserveReconcile records the outcome of one reconciliation run.
func (m *Metrics) ObserveReconcile(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reconcilesTotal.WithLabelValues(result).Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
}

// CountSweepDrift counts an invoice whose stored totals were stale.
func (m *Metrics) CountSweepDrift() {
	if m == nil {
		return
	}
	m.sweepDriftTotal.Inc()
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
