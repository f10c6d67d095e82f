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

// Vote submission kinds.
const (
	VoteRegistered = "registered"
	VoteVoted      = "voted"
	VoteUpdated    = "updated"
)

// Metrics owns the collectors exported on /metrics.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	roomsCreated        prometheus.Counter
	votesSubmitted      *prometheus.CounterVec
	roomTransitions     *prometheus.CounterVec
	aggregationSeconds  prometheus.Histogram
}

// New builds a private registry holding the HTTP, domain and runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daypoll_rooms_created_total",
			Help: "Total number of rooms created",
		}),
		votesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daypoll_votes_submitted_total",
			Help: "Total number of vote submissions by kind",
		}, []string{"kind"}),
		roomTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daypoll_room_transitions_total",
			Help: "Total number of room status transitions by target status",
		}, []string{"status"}),
		aggregationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "daypoll_aggregation_seconds",
			Help:    "Time spent computing vote tallies and rankings",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.roomsCreated,
		m.votesSubmitted,
		m.roomTransitions,
		m.aggregationSeconds,
	)
	return m
}

// GinMiddleware records request counts and latencies per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		m.httpRequestsTotal.With(labels).Inc()
		m.httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RoomCreated() {
	m.roomsCreated.Inc()
}

func (m *Metrics) VoteSubmitted(kind string) {
	m.votesSubmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) RoomTransitioned(status string) {
	m.roomTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAggregation(duration time.Duration) {
	m.aggregationSeconds.Observe(duration.Seconds())
}
