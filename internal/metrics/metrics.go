// Package metrics defines the Prometheus collectors the server exports on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. Components receive the struct (or nil when
// metrics are disabled) and call the nil-safe helper methods below.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	PlatformFetchTotal    *prometheus.CounterVec
	PlatformFetchDuration *prometheus.HistogramVec
	CircuitBreakerState   *prometheus.GaugeVec

	AggregationsTotal *prometheus.CounterVec
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter

	EventsPublishedTotal *prometheus.CounterVec
}

// New creates the collectors on a private registry, so tests can build as
// many instances as they like without duplicate-registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		PlatformFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "platform_fetch_total",
			Help: "Platform adapter calls by platform and result kind.",
		}, []string{"platform", "result"}),
		PlatformFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "platform_fetch_duration_seconds",
			Help:    "Platform adapter latency in seconds, including retries.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		}, []string{"platform"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),
		AggregationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregations_total",
			Help: "Combined analytics aggregations by outcome (complete, partial, failed).",
		}, []string{"outcome"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Analytics cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Analytics cache misses.",
		}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Analytics events by status (published, dropped, failed).",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PlatformFetchTotal,
		m.PlatformFetchDuration,
		m.CircuitBreakerState,
		m.AggregationsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EventsPublishedTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests use testutil against it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePlatformFetch records one adapter call.
func (m *Metrics) ObservePlatformFetch(platform, result string, seconds float64) {
	if m == nil {
		return
	}
	m.PlatformFetchTotal.WithLabelValues(platform, result).Inc()
	m.PlatformFetchDuration.WithLabelValues(platform).Observe(seconds)
}

// SetBreakerState records a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveAggregation records the outcome of one fresh aggregation.
func (m *Metrics) ObserveAggregation(outcome string) {
	if m == nil {
		return
	}
	m.AggregationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

// ObserveEvent records what happened to an analytics event.
func (m *Metrics) ObserveEvent(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(status).Add(float64(n))
}
