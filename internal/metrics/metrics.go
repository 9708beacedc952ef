package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Wasteer API.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics.
	AuthFailuresTotal  *prometheus.CounterVec
	AuthSuccessesTotal *prometheus.CounterVec

	// Domain metrics.
	EntriesCreatedTotal *prometheus.CounterVec
	EntriesWeightKg     *prometheus.CounterVec
	AnalyticsQueries    prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasteer_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wasteer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasteer_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"kind"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasteer_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"kind"}),

		EntriesCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasteer_entries_created_total",
			Help: "Total number of waste entries recorded.",
		}, []string{"waste_type"}),

		EntriesWeightKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wasteer_entries_weight_kilograms_total",
			Help: "Total recorded waste weight in kilograms.",
		}, []string{"waste_type"}),

		AnalyticsQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wasteer_analytics_queries_total",
			Help: "Total number of analytics aggregation queries served.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wasteer_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.EntriesCreatedTotal,
		m.EntriesWeightKg,
		m.AnalyticsQueries,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// IncAuthFailure increments the auth failure counter for the given kind
// ("login" or "token").
func (m *Metrics) IncAuthFailure(kind string) {
	m.AuthFailuresTotal.WithLabelValues(kind).Inc()
}

// IncAuthSuccess increments the auth success counter for the given kind.
func (m *Metrics) IncAuthSuccess(kind string) {
	m.AuthSuccessesTotal.WithLabelValues(kind).Inc()
}

// ObserveEntryCreated records one created entry and its weight.
func (m *Metrics) ObserveEntryCreated(wasteType string, weightKg float64) {
	m.EntriesCreatedTotal.WithLabelValues(wasteType).Inc()
	m.EntriesWeightKg.WithLabelValues(wasteType).Add(weightKg)
}

// IncAnalyticsQuery counts one served analytics aggregation.
func (m *Metrics) IncAnalyticsQuery() {
	m.AnalyticsQueries.Inc()
}
