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

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so components may run without metrics.
type Metrics struct {
	ServiceName string
	registry    *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	lookupRequests  *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	scanDetections  *prometheus.CounterVec
	realtimeSubs    prometheus.Gauge
	realtimeDropped prometheus.Counter
}

// New creates and registers the collectors for serviceName.
func New(serviceName string) *Metrics {
	m := &Metrics{
		ServiceName: serviceName,
		registry:    prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
			[]string{"service", "method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_status_category_total", Help: "Responses by status category (2xx, 4xx, 5xx)"},
			[]string{"service", "category", "method", "path"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "barcode_resolutions_total", Help: "Barcode resolutions by outcome"},
			[]string{"outcome"},
		),
		lookupRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "product_lookup_requests_total", Help: "Remote product lookups by source and result"},
			[]string{"source", "result"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_lookup_duration_seconds",
				Help:    "Duration of remote product lookups in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"source"},
		),
		scanDetections: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "scan_detections_total", Help: "Barcodes detected from camera frames by format"},
			[]string{"format"},
		),
		realtimeSubs: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "realtime_subscribers", Help: "Connected realtime stream clients"},
		),
		realtimeDropped: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "realtime_events_dropped_total", Help: "Events dropped because a client buffer was full"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCounter, m.requestDuration, m.statusCategory,
		m.resolutions, m.lookupRequests, m.lookupDuration, m.scanDetections,
		m.realtimeSubs, m.realtimeDropped,
	)
	return m
}

// Middleware records request count, duration and status category.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusStr := strconv.Itoa(status)

		m.requestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		m.requestDuration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())

		category := ""
		switch {
		case status >= 200 && status < 300:
			category = "2xx"
		case status >= 400 && status < 500:
			category = "4xx"
		case status >= 500 && status < 600:
			category = "5xx"
		}
		if category != "" {
			m.statusCategory.WithLabelValues(m.ServiceName, category, method, path).Inc()
		}
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveResolution counts one resolver outcome.
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// ObserveLookup records one remote lookup; result is hit, miss or error.
func (m *Metrics) ObserveLookup(source, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookupRequests.WithLabelValues(source, result).Inc()
	m.lookupDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveDetection counts a barcode read from a camera frame.
func (m *Metrics) ObserveDetection(format string) {
	if m == nil {
		return
	}
	m.scanDetections.WithLabelValues(format).Inc()
}

// SubscriberDelta adjusts the connected realtime client gauge.
func (m *Metrics) SubscriberDelta(n int) {
	if m == nil {
		return
	}
	m.realtimeSubs.Add(float64(n))
}

// EventDropped counts a realtime event that could not be delivered.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc()
}
