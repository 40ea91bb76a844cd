package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	expanded     prometheus.Histogram
	routeErrors  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routex",
			Name:      "http_requests_total",
			Help:      "Number of http requests by route, method and status code.",
		}, []string{"path", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routex",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of http requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		expanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routex",
			Name:      "route_expanded_states",
			Help:      "Search states expanded per successful route query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		routeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routex",
			Name:      "route_errors_total",
			Help:      "Failed route queries by http status.",
		}, []string{"code"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.expanded, m.routeErrors)
	return m
}

// PromeHttpMiddleware records count and latency of every request, labeled
// with the chi route pattern so path params do not blow up cardinality.
func PromeHttpMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
