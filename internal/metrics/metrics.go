// Package metrics exposes Prometheus collectors for the folio service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	resolveAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_resolve_attempts_total",
			Help: "Dashboard catalog fetch attempts, labeled by outcome (ok, error, timeout).",
		},
		[]string{"outcome"},
	)

	resolveGiveUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_resolve_give_ups_total",
			Help: "Resolutions that exhausted every retry and degraded to an empty result.",
		},
	)

	renderNodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_render_nodes_total",
			Help: "Rendered nodes, labeled by node kind.",
		},
		[]string{"kind"},
	)

	staleResolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_stale_resolutions_total",
			Help: "Resolutions dropped because the session content changed first.",
		},
	)
)

// Handler returns an http.Handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveResolveAttempt records one catalog fetch attempt.
func ObserveResolveAttempt(outcome string) {
	resolveAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveResolveGiveUp records a resolution that ran out of attempts.
func ObserveResolveGiveUp() {
	resolveGiveUpsTotal.Inc()
}

// ObserveRenderNodes records n emitted nodes of the given kind.
func ObserveRenderNodes(kind string, n int) {
	renderNodesTotal.WithLabelValues(kind).Add(float64(n))
}

// ObserveStaleResolution records a dropped superseded resolution.
func ObserveStaleResolution() {
	staleResolutionsTotal.Inc()
}

// Middleware records request counts and latencies keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
