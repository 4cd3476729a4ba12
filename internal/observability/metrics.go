package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus counters for HTTP traffic and authentication.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	authOutcomes    *prometheus.CounterVec
	xpAwarded       prometheus.Counter
}

// NewMetrics registers collectors on the given registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darsni_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "darsni_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darsni_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "darsni_auth_outcomes_total",
			Help: "Guard outcomes by guard name and outcome.",
		}, []string{"guard", "outcome"}),
		xpAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "darsni_leaderboard_xp_awarded_total",
			Help: "XP points awarded on the leaderboard.",
		}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.errors, m.authOutcomes, m.xpAwarded)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordAuth counts a guard outcome; outcome is an error code or "authenticated"/"anonymous".
func (m *Metrics) RecordAuth(guard, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(guard, outcome).Inc()
}

// RecordXP counts awarded leaderboard points.
func (m *Metrics) RecordXP(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.xpAwarded.Add(float64(points))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error {
			return fiber.ErrNotFound
		}
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
