// Package metrics defines the Prometheus metric collectors used by the
// indexer and searcher and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	DocsIndexedTotal    prometheus.Counter
	RecordsSkippedTotal prometheus.Counter
	TermsPrunedTotal    prometheus.Counter
	IndexTerms          prometheus.Gauge
	IndexBuildDuration  prometheus.Histogram
	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	StorageOpsTotal     *prometheus.CounterVec
	handler             http.Handler
}

// New creates all collectors and registers them with reg. A nil reg uses a
// fresh private registry, which keeps tests independent of the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		RecordsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_records_skipped_total",
				Help: "Corpus records rejected as malformed during a build.",
			},
		),
		TermsPrunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "terms_pruned_total",
				Help: "Frequent terms removed from the index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Number of distinct terms in the active index.",
			},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Wall time of a full index build including pruning.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by outcome (hit, zero_result, invalid, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Query resolution latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
			[]string{"strategy"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		StorageOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_operations_total",
				Help: "Index persistence operations by backend, operation and status.",
			},
			[]string{"backend", "op", "status"},
		),
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.RecordsSkippedTotal,
		m.TermsPrunedTotal,
		m.IndexTerms,
		m.IndexBuildDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StorageOpsTotal,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveStorage records the outcome of one persistence operation.
func (m *Metrics) ObserveStorage(backend, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOpsTotal.WithLabelValues(backend, op, status).Inc()
}
