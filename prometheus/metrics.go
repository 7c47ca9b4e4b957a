package prometheus

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"retail-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Credential/session metrics
	LoginCounter        prometheus.Counter
	RegisterCounter     prometheus.Counter
	TokenRefreshCounter prometheus.Counter
	ActiveTokensGauge   prometheus.Gauge

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity operation metrics
	EntityOperationsCounter prometheus.CounterVec

	// Debt reset bulk action
	DeptResetCounter prometheus.Counter

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with configuration. Safe to call
// more than once; registration happens on the first call only.
func InitMetrics(cfg *config.Config) {
	initOnce.Do(func() {
		prefix := cfg.Metrics.Prefix

		HttpRequestsTotal = *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
		)

		AuthSuccessCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_success_total",
				Help: "Total number of successful authentications",
			},
		)

		AuthErrorsCounter = *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors",
			},
			[]string{"reason"},
		)

		LoginCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_login_requests_total",
				Help: "Total number of login requests",
			},
		)

		RegisterCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_register_requests_total",
				Help: "Total number of registration requests",
			},
		)

		TokenRefreshCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_token_refresh_total",
				Help: "Total number of token refresh requests",
			},
		)

		ActiveTokensGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_active_tokens",
				Help: "Number of issued token pairs not yet expired",
			},
		)

		DbOperationDuration = *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		EntityOperationsCounter = *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_entity_operations_total",
				Help: "Total number of entity operations",
			},
			[]string{"entity", "operation"},
		)

		DeptResetCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_dept_resets_total",
				Help: "Total number of chain link debt resets",
			},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordEntityOperation increments the counter for CRUD operations on an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordAuthError increments the auth error counter for a failure reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// HTTPMiddleware creates an Echo middleware function that records HTTP request metrics
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()

			duration := time.Since(start).Seconds()
			HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
