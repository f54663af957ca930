package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that never reached a route: unknown paths
// and requests rejected by middleware ahead of routing.
const unmatchedRoute = "unmatched"

// Record API metrics, labelled by route pattern so record ids and typed
// queries never become label values.
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Record API request duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Record API requests by route, method and status class",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Record API requests currently being served",
		},
	)
)

// Middleware records duration, count and in-flight requests per route.
// Requests for the skipped paths (the scrape endpoint) are served unrecorded.
func Middleware(skip ...string) func(next http.Handler) http.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipped[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route, code := routePattern(r), statusClass(ww.Status())
			HTTPRequestDuration.WithLabelValues(route, r.Method, code).Observe(time.Since(start).Seconds())
			HTTPRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		})
	}
}

// routePattern is only complete once the router has matched, i.e. after next returns.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// statusClass collapses a status to "2xx".."5xx". A handler that wrote
// nothing answered 200.
func statusClass(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status/100) + "xx"
}
