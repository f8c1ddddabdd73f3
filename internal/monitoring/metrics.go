package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the driver.
type Metrics struct {
	registry *prometheus.Registry

	// Script engine metrics
	ScriptExecutions *prometheus.CounterVec
	ScriptDuration   *prometheus.HistogramVec
	AsyncInFlight    prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ScriptExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driver_script_executions_total",
				Help: "Total script executions by mode and status",
			},
			[]string{"mode", "status"},
		),
		ScriptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "driver_script_duration_seconds",
				Help:    "Script execution duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		AsyncInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "driver_async_executions_in_flight",
				Help: "Asynchronous script executions currently supervised",
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driver_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "driver_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "driver_sessions_active",
				Help: "Active driver sessions",
			},
		),
	}
}

// RecordScript records one script execution.
func (m *Metrics) RecordScript(mode, status string, duration time.Duration) {
	m.ScriptExecutions.WithLabelValues(mode, status).Inc()
	m.ScriptDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
