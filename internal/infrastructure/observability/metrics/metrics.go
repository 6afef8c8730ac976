// Package metrics exposes Prometheus collectors for imports, renders and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wireviz"

// Import outcomes.
const (
	StatusOK          = "ok"
	StatusInvalid     = "invalid"
	StatusRenderError = "render_error"
	StatusFailed      = "failed"
)

// Collector owns a private registry and the plugin's metric vectors.
type Collector struct {
	registry *prometheus.Registry

	ImportsTotal        *prometheus.CounterVec
	RenderDuration      *prometheus.HistogramVec
	BOMLinesTotal       prometheus.Counter
	UnmatchedPartsTotal prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HubClients          prometheus.Gauge
}

// NewCollector registers every metric on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		ImportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Harness imports by outcome",
		}, []string{"status"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Diagram render time by renderer and outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"renderer", "status"}),
		BOMLinesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bom_lines_total",
			Help:      "BOM lines extracted from imported harnesses",
		}),
		UnmatchedPartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_part_numbers_total",
			Help:      "BOM part numbers that matched no inventory part",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HubClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
	}

	reg.MustRegister(
		c.ImportsTotal,
		c.RenderDuration,
		c.BOMLinesTotal,
		c.UnmatchedPartsTotal,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.HubClients,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordImport counts one import. A nil collector records nothing.
func (c *Collector) RecordImport(status string, bomLines, unmatched int) {
	if c == nil {
		return
	}
	c.ImportsTotal.WithLabelValues(status).Inc()
	c.BOMLinesTotal.Add(float64(bomLines))
	c.UnmatchedPartsTotal.Add(float64(unmatched))
}

// RecordRender observes one render attempt.
func (c *Collector) RecordRender(renderer string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	c.RenderDuration.WithLabelValues(renderer, status).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request metric.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetHubClients sets the connected websocket client gauge.
func (c *Collector) SetHubClients(n int) {
	if c == nil {
		return
	}
	c.HubClients.Set(float64(n))
}

// Middleware records every request against its route template, so
// /panel/:part is one series regardless of the part id.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.RecordHTTPRequest(ctx.Request.Method, path, ctx.Writer.Status(), time.Since(start))
	}
}
