// Package metrics exposes Prometheus counters for HTTP traffic and case
// lifecycle events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Case lifecycle events.
const (
	CaseCreated    = "created"
	CaseUpdated    = "updated"
	CaseDeleted    = "deleted"
	CaseSynced     = "synced"
	CaseSyncSkip   = "sync_skipped"
	CaseSyncFailed = "sync_failed"
)

type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	caseEvents *prometheus.CounterVec
}

// New builds a Metrics with its own registry, so several servers can live
// in one process (tests) without duplicate registration.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aish_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aish_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		caseEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aish_case_events_total",
			Help: "Case lifecycle events.",
		}, []string{"event"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.caseEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CaseEvent counts one case lifecycle event. Safe on a nil receiver.
func (m *Metrics) CaseEvent(event string) {
	if m == nil {
		return
	}
	m.caseEvents.WithLabelValues(event).Inc()
}

// Middleware records request counts and latency labelled by the matched
// route template, or "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
