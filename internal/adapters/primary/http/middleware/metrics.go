package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/metrics"
)

// unmatchedRoute labels requests no route pattern matched.
const unmatchedRoute = "unmatched"

// Metrics records request counts, latency and response sizes. Routes are
// labelled by their chi pattern to keep cardinality low. Server errors and
// requests slower than slowThreshold are logged.
func Metrics(logger *slog.Logger, slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := r.Method

			// The route pattern is only known after routing.
			metrics.HTTPInFlight.WithLabelValues(method).Inc()
			defer metrics.HTTPInFlight.WithLabelValues(method).Dec()

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)
			class := metrics.StatusClass(rw.statusCode)
			duration := time.Since(start)

			metrics.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, method, status, class).Observe(duration.Seconds())
			metrics.HTTPResponseSize.WithLabelValues(route, method, status, class).Observe(float64(rw.bytesWritten))

			if logger == nil {
				return
			}
			attrs := []any{
				"route", route,
				"method", method,
				"status", rw.statusCode,
				"duration_ms", duration.Milliseconds(),
				"bytes", rw.bytesWritten,
			}
			switch {
			case rw.statusCode >= 500:
				logger.ErrorContext(r.Context(), "http request failed", attrs...)
			case slowThreshold > 0 && duration >= slowThreshold:
				logger.WarnContext(r.Context(), "http request slow", attrs...)
			}
		})
	}
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
