// Package metrics exposes a Prometheus registry for the advisor service,
// satisfying the schema.Recorder and provenance.IndexSizeRecorder
// collaborator interfaces used by the lower layers so they stay unaware of
// the concrete metrics backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every counter/histogram/gauge the advisor service emits.
// A single Registry is constructed at startup and shared by every package
// that observes an outcome.
type Registry struct {
	reg *prometheus.Registry

	jsonPass       prometheus.Counter
	jsonRetryPass  prometheus.Counter
	jsonFail       prometheus.Counter
	jsonFallback   prometheus.Counter
	jsonEnforceDur prometheus.Histogram

	provenanceIndexSize *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	contextProviderDuration *prometheus.HistogramVec
	contextProviderOutcome  *prometheus.CounterVec

	llmFirstTokenDuration prometheus.Histogram
	llmFallbackUsed       prometheus.Counter
	llmTotalDuration      prometheus.Histogram

	scheduleFitDuration prometheus.Histogram
	scheduleFitNodes    prometheus.Histogram

	graphCacheHit  *prometheus.CounterVec
	graphCacheMiss *prometheus.CounterVec

	cacheHit  *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec

	sseClientsActive prometheus.Gauge
}

// New constructs a Registry with every collector registered against a fresh
// prometheus.Registry (not the global DefaultRegisterer, so tests can build
// independent instances without collector-already-registered panics).
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		jsonPass: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "schema", Name: "json_pass_total",
			Help: "Chat completions whose first JSON decode/validate attempt succeeded.",
		}),
		jsonRetryPass: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "schema", Name: "json_retry_pass_total",
			Help: "Chat completions that succeeded only after a repair-prompt retry.",
		}),
		jsonFail: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "schema", Name: "json_fail_total",
			Help: "Chat completions that exhausted retries without a valid schema match.",
		}),
		jsonFallback: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "schema", Name: "json_fallback_total",
			Help: "Chat completions served by the regex fallback extractor.",
		}),
		jsonEnforceDur: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "schema", Name: "json_enforce_seconds",
			Help:    "Wall time spent extracting, repairing, and validating one LLM response.",
			Buckets: prometheus.DefBuckets,
		}),

		provenanceIndexSize: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "provenance", Name: "index_entities_total",
			Help: "New entity ids added to the provenance source index, by source.",
		}, []string{"source"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		contextProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "context", Name: "provider_duration_seconds",
			Help:    "Context provider fetch latency, by provider kind.",
			Buckets: []float64{.005, .01, .025, .05, .1, .15, .25, .5, 1},
		}, []string{"kind"}),
		contextProviderOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "context", Name: "provider_outcome_total",
			Help: "Context provider fetch outcomes, by provider kind and outcome.",
		}, []string{"kind", "outcome"}),

		llmFirstTokenDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "llm", Name: "first_token_seconds",
			Help:    "Time to the first streamed token from the LLM router.",
			Buckets: []float64{.05, .1, .2, .3, .5, .75, 1, 2},
		}),
		llmFallbackUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "llm", Name: "fallback_used_total",
			Help: "Chat requests whose response came from the fallback provider.",
		}),
		llmTotalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "llm", Name: "total_response_seconds",
			Help:    "Time from prompt submission to the terminal stream frame.",
			Buckets: prometheus.DefBuckets,
		}),

		scheduleFitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "schedulefit", Name: "beam_search_seconds",
			Help:    "Beam search wall time for one schedule-fit ranking.",
			Buckets: []float64{.01, .025, .05, .1, .2, .3, .5},
		}),
		scheduleFitNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor", Subsystem: "schedulefit", Name: "beam_search_nodes",
			Help:    "Nodes expanded during one beam search run.",
			Buckets: []float64{100, 1000, 5000, 10000, 25000, 50000},
		}),

		graphCacheHit: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "graph", Name: "cache_hit_total",
			Help: "Graph algorithm result-cache hits, by algorithm.",
		}, []string{"algorithm"}),
		graphCacheMiss: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "graph", Name: "cache_miss_total",
			Help: "Graph algorithm result-cache misses, by algorithm.",
		}, []string{"algorithm"}),

		cacheHit: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "tagcache", Name: "hit_total",
			Help: "Versioned tag-cache hits, by tag.",
		}, []string{"tag"}),
		cacheMiss: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor", Subsystem: "tagcache", Name: "miss_total",
			Help: "Versioned tag-cache misses, by tag.",
		}, []string{"tag"}),

		sseClientsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "advisor", Subsystem: "sse", Name: "clients_active",
			Help: "Currently open /api/chat SSE connections.",
		}),
	}
}

// Gatherer exposes the underlying prometheus.Gatherer for the /metrics
// handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// --- schema.Recorder ---

func (r *Registry) JSONPass()                           { r.jsonPass.Inc() }
func (r *Registry) JSONRetryPass()                      { r.jsonRetryPass.Inc() }
func (r *Registry) JSONFail()                           { r.jsonFail.Inc() }
func (r *Registry) JSONFallback()                       { r.jsonFallback.Inc() }
func (r *Registry) JSONEnforceDuration(d time.Duration) { r.jsonEnforceDur.Observe(d.Seconds()) }

// --- provenance.IndexSizeRecorder ---

// OnIndexGrow returns an IndexSizeRecorder-shaped func bound to this
// Registry, suitable for passing directly to provenance.New.
func (r *Registry) OnIndexGrow() func(source string) {
	return func(source string) { r.provenanceIndexSize.WithLabelValues(source).Inc() }
}

// --- HTTP ---

func (r *Registry) ObserveHTTP(route, method, status string, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// --- context providers ---

func (r *Registry) ObserveContextProvider(kind string, outcome string, d time.Duration) {
	r.contextProviderDuration.WithLabelValues(kind).Observe(d.Seconds())
	r.contextProviderOutcome.WithLabelValues(kind, outcome).Inc()
}

// --- LLM router ---

func (r *Registry) ObserveFirstToken(d time.Duration)    { r.llmFirstTokenDuration.Observe(d.Seconds()) }
func (r *Registry) ObserveTotalResponse(d time.Duration) { r.llmTotalDuration.Observe(d.Seconds()) }
func (r *Registry) IncFallbackUsed()                     { r.llmFallbackUsed.Inc() }

// --- schedule-fit ---

func (r *Registry) ObserveScheduleFit(d time.Duration, nodes int) {
	r.scheduleFitDuration.Observe(d.Seconds())
	r.scheduleFitNodes.Observe(float64(nodes))
}

// --- graph algorithm cache ---

func (r *Registry) GraphCacheHit(algorithm string) { r.graphCacheHit.WithLabelValues(algorithm).Inc() }
func (r *Registry) GraphCacheMiss(algorithm string) {
	r.graphCacheMiss.WithLabelValues(algorithm).Inc()
}

// --- tag cache ---

func (r *Registry) TagCacheHit(tag string)  { r.cacheHit.WithLabelValues(tag).Inc() }
func (r *Registry) TagCacheMiss(tag string) { r.cacheMiss.WithLabelValues(tag).Inc() }

// --- SSE ---

func (r *Registry) SSEClientConnected()    { r.sseClientsActive.Inc() }
func (r *Registry) SSEClientDisconnected() { r.sseClientsActive.Dec() }
