// Package metrics holds the Prometheus collectors for the HTTP layer and the
// receipt pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request latency by route and method.", Buckets: prometheus.DefBuckets},
		[]string{"route", "method"},
	)
	// ReceiptsDispatched counts /send-receipt outcomes. method is "email",
	// "sms" or "invalid"; outcome is "success", "validation", "resource" or
	// "transport".
	ReceiptsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "receipts_dispatched_total", Help: "Receipt dispatch attempts by method and outcome."},
		[]string{"method", "outcome"},
	)
	LogoUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "logo_uploads_total", Help: "Logo uploads by outcome."},
		[]string{"outcome"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "rate_limited_requests_total", Help: "Requests rejected by the rate limiter."},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, ReceiptsDispatched, LogoUploads, RateLimited)
}

// Middleware records request count and latency. The route label is chi's
// route pattern so that path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
