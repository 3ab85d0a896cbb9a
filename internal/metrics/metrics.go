// Package metrics exposes Prometheus collectors for the profile engine on a
// private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "property_profile"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sourceOutcomes  *prometheus.CounterVec
	sourceDuration  *prometheus.HistogramVec
	cacheResults    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	geocodeFailures *prometheus.CounterVec
	profilesBuilt   prometheus.Counter
	profileWarnings prometheus.Histogram
}

// New creates the collectors and registers them with a fresh registry,
// together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.sourceOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_outcomes_total",
		Help:      "Source adapter outcomes by section, source and status.",
	}, []string{"section", "source", "status"})
	m.sourceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Source adapter latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"section", "source"})
	m.cacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_results_total",
		Help:      "Response cache lookups by result.",
	}, []string{"result"})
	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
	m.geocodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_failures_total",
		Help:      "Geocoding failures by reason.",
	}, []string{"reason"})
	m.profilesBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profiles_built_total",
		Help:      "Profiles built from upstream sources (cache misses).",
	})
	m.profileWarnings = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_warnings",
		Help:      "Number of warnings per built profile.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
	})

	m.registry.MustRegister(
		m.sourceOutcomes,
		m.sourceDuration,
		m.cacheResults,
		m.requestDuration,
		m.geocodeFailures,
		m.profilesBuilt,
		m.profileWarnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSource records one adapter outcome.
func (m *Metrics) ObserveSource(section, source, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.sourceOutcomes.WithLabelValues(section, source, status).Inc()
	m.sourceDuration.WithLabelValues(section, source).Observe(d.Seconds())
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheResults.WithLabelValues(result).Inc()
}

// ObserveRequest records an HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}

// ObserveGeocodeFailure records a failed geocoding attempt.
func (m *Metrics) ObserveGeocodeFailure(reason string) {
	if m == nil {
		return
	}
	m.geocodeFailures.WithLabelValues(reason).Inc()
}

// ObserveProfile records a profile built from upstream sources.
func (m *Metrics) ObserveProfile(warnings int) {
	if m == nil {
		return
	}
	m.profilesBuilt.Inc()
	m.profileWarnings.Observe(float64(warnings))
}
