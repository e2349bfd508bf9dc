package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	writes   *prometheus.CounterVec
	blobs    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lexdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lexdesk",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexdesk",
			Name:      "entity_writes_total",
			Help:      "Committed entity writes by collection and operation.",
		}, []string{"collection", "op"}),
		blobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexdesk",
			Name:      "blob_bytes_total",
			Help:      "Document payload bytes by direction.",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.inflight,
		m.writes,
		m.blobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		m.inflight.Inc()
		start := time.Now()
		sw := wrapResponse(w)
		next.ServeHTTP(sw, r)
		m.inflight.Dec()
		route := routeLabel(r.URL.Path)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) recordWrite(collection, op string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) recordBlob(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.blobs.WithLabelValues(direction).Add(float64(n))
}
