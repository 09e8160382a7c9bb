package middleware

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
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_accepted_total",
			Help: "Total number of accepted leads by fallback step",
		},
		[]string{"step"},
	)

	leadAcceptConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_accept_conflicts_total",
			Help: "Total number of accept attempts on leads already taken",
		},
	)

	deadlinePenalties = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deadline_penalties_total",
			Help: "Total number of contact deadline penalties applied",
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern usa el patrón de chi para no crear una serie por cada URL.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// DomainMetrics expone los contadores de negocio a los casos de uso.
type DomainMetrics struct{}

func (DomainMetrics) LeadAccepted(step string) {
	leadsAccepted.WithLabelValues(step).Inc()
}

func (DomainMetrics) LeadAcceptConflict() {
	leadAcceptConflicts.Inc()
}

func (DomainMetrics) DeadlinePenalty() {
	deadlinePenalties.Inc()
}

func (DomainMetrics) IntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
