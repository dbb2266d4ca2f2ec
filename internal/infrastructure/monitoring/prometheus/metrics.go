// Package prometheus registers and exposes all MolVista service metrics.
// A single Metrics value is constructed at startup and injected into every
// component that records observations; the registry is private so tests can
// construct isolated instances without global-state collisions.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default bucket layouts.
var (
	defaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	defaultFetchDurationBuckets = []float64{.1, .25, .5, 1, 2, 4, 8, 16}
	defaultLoadDurationBuckets  = []float64{.25, .5, 1, 2, 4, 7, 10}
	defaultLLMDurationBuckets   = []float64{.5, 1, 2, 5, 10, 30, 60}
)

// Metrics holds every metric the service records.
type Metrics struct {
	registry *prometheus.Registry

	// Retrieval pipeline
	FetchAttemptsTotal *prometheus.CounterVec   // labels: source, outcome
	FetchDuration      *prometheus.HistogramVec // labels: source
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	NameLookupsTotal   *prometheus.CounterVec // labels: outcome

	// Render workflow
	SessionTransitionsTotal *prometheus.CounterVec // labels: from, to
	FallbacksTotal          *prometheus.CounterVec // labels: reason
	LoadsTotal              *prometheus.CounterVec // labels: outcome
	LoadDuration            prometheus.Histogram

	// Prediction and chat
	PredictionsTotal  *prometheus.CounterVec // labels: outcome
	ChatRequestsTotal *prometheus.CounterVec // labels: outcome
	ChatDuration      prometheus.Histogram

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec   // labels: method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, path
}

// NewMetrics constructs and registers all service metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{registry: reg}

	m.FetchAttemptsTotal = factory("molvista_fetch_attempts_total",
		"Structure fetch attempts by source and outcome", "source", "outcome")
	m.FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "molvista_fetch_duration_seconds",
		Help:    "Per-source structure fetch duration",
		Buckets: defaultFetchDurationBuckets,
	}, []string{"source"})
	reg.MustRegister(m.FetchDuration)

	m.CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "molvista_structure_cache_hits_total",
		Help: "Structure cache hits",
	})
	m.CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "molvista_structure_cache_misses_total",
		Help: "Structure cache misses",
	})
	reg.MustRegister(m.CacheHitsTotal, m.CacheMissesTotal)

	m.NameLookupsTotal = factory("molvista_name_lookups_total",
		"Best-effort name lookups by outcome", "outcome")

	m.SessionTransitionsTotal = factory("molvista_session_transitions_total",
		"Render session state transitions", "from", "to")
	m.FallbacksTotal = factory("molvista_fallbacks_total",
		"Loads that degraded to the fallback view, by reason", "reason")
	m.LoadsTotal = factory("molvista_loads_total",
		"Completed structure loads by outcome", "outcome")
	m.LoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "molvista_load_duration_seconds",
		Help:    "End-to-end load duration, capability wait through first frame",
		Buckets: defaultLoadDurationBuckets,
	})
	reg.MustRegister(m.LoadDuration)

	m.PredictionsTotal = factory("molvista_predictions_total",
		"Property prediction requests by outcome", "outcome")
	m.ChatRequestsTotal = factory("molvista_chat_requests_total",
		"Chat requests by outcome", "outcome")
	m.ChatDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "molvista_chat_duration_seconds",
		Help:    "Chat completion duration",
		Buckets: defaultLLMDurationBuckets,
	})
	reg.MustRegister(m.ChatDuration)

	m.HTTPRequestsTotal = factory("molvista_http_requests_total",
		"HTTP requests", "method", "path", "status")
	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "molvista_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: defaultHTTPDurationBuckets,
	}, []string{"method", "path"})
	reg.MustRegister(m.HTTPRequestDuration)

	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
