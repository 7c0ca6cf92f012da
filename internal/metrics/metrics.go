// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Form outcomes recorded by RecordFormOutcome.
const (
	OutcomeSubmitted = "submitted"
	OutcomeInvalid   = "invalid"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
	OutcomeExpired   = "expired"
)

// Metrics holds the Prometheus collectors of the service. All methods are
// safe on a nil receiver so components can run without instrumentation.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CatalogFetches       *prometheus.CounterVec
	CatalogFetchDuration *prometheus.HistogramVec

	FormsOpen    prometheus.Gauge
	FormOutcomes *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nebula_dq_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nebula_dq_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CatalogFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nebula_dq_catalog_fetches_total",
				Help: "Total number of catalog reads",
			},
			[]string{"source", "resource", "status"},
		),
		CatalogFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nebula_dq_catalog_fetch_duration_seconds",
				Help:    "Duration of catalog reads in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"source", "resource"},
		),
		FormsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nebula_dq_forms_open",
				Help: "Number of open test case forms",
			},
		),
		FormOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nebula_dq_form_outcomes_total",
				Help: "Total number of finished test case forms by outcome",
			},
			[]string{"outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.CatalogFetches,
		m.CatalogFetchDuration,
		m.FormsOpen,
		m.FormOutcomes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCatalogFetch counts one catalog read and its latency.
func (m *Metrics) RecordCatalogFetch(source, resource string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CatalogFetches.WithLabelValues(source, resource, status).Inc()
	m.CatalogFetchDuration.WithLabelValues(source, resource).Observe(duration.Seconds())
}

// SetFormsOpen reports the number of open forms.
func (m *Metrics) SetFormsOpen(count int) {
	if m == nil {
		return
	}
	m.FormsOpen.Set(float64(count))
}

// RecordFormOutcome counts a finished (or rejected) form.
func (m *Metrics) RecordFormOutcome(outcome string) {
	if m == nil {
		return
	}
	m.FormOutcomes.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
