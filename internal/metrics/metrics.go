package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one registry. Tests build their own
// registry so collectors never clash with the default one.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	signups         prometheus.Counter
	statusChanges   *prometheus.CounterVec
	gateTerminated  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accounts_signups_total",
			Help: "Accounts created through signup.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_status_changes_total",
			Help: "Staff activations and deactivations.",
		}, []string{"action"}),
		gateTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_gate_terminations_total",
			Help: "Sessions ended by the access gate, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requests,
		m.requestDuration,
		m.signups,
		m.statusChanges,
		m.gateTerminated,
	)
	return m
}

func (m *Metrics) Signup() { m.signups.Inc() }

func (m *Metrics) StatusChanged(active bool, n int) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	m.statusChanges.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) GateTerminated(reason string) {
	m.gateTerminated.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
