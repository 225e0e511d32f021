// Package metrics provides Prometheus metrics export for the procurement
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports pipeline metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	// Stage metrics
	stageLatency *prometheus.HistogramVec
	stageRuns    *prometheus.CounterVec

	// Run metrics
	runsTotal  *prometheus.CounterVec
	runLatency prometheus.Histogram
	runsActive prometheus.Gauge

	// Decision metrics
	decisions *prometheus.CounterVec

	// Provider metrics
	llmTokens     *prometheus.CounterVec
	searchQueries *prometheus.CounterVec
	orders        *prometheus.CounterVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)

	e.stageRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Total number of stage executions",
		},
		[]string{"stage", "status"},
	)

	e.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	e.runLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "run_latency_seconds",
			Help:      "End-to-end pipeline run latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.runsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "runs_active",
			Help:      "Number of pipeline runs in flight",
		},
	)

	e.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "decisions_total",
			Help:      "Total number of routing decisions",
		},
		[]string{"action", "approval_level"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"stage", "token_type"},
	)

	e.searchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "search_queries_total",
			Help:      "Total number of web search queries",
		},
		[]string{"provider", "status"},
	)

	e.orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "orders_total",
			Help:      "Total number of executed orders",
		},
		[]string{"provider", "status"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procura",
			Subsystem: "pipeline",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.stageLatency,
		e.stageRuns,
		e.runsTotal,
		e.runLatency,
		e.runsActive,
		e.decisions,
		e.llmTokens,
		e.searchQueries,
		e.orders,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// RecordStage records one stage execution.
func (e *Exporter) RecordStage(stage string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.stageRuns.WithLabelValues(stage, status).Inc()
	e.stageLatency.WithLabelValues(stage).Observe(latency.Seconds())
}

// RecordRun records a finished pipeline run.
func (e *Exporter) RecordRun(status string, latency time.Duration) {
	e.runsTotal.WithLabelValues(status).Inc()
	e.runLatency.Observe(latency.Seconds())
}

// RunStarted marks a run in flight; the returned func marks it done.
func (e *Exporter) RunStarted() func() {
	e.runsActive.Inc()
	return e.runsActive.Dec
}

// RecordDecision records a routing decision.
func (e *Exporter) RecordDecision(action, approvalLevel string) {
	e.decisions.WithLabelValues(action, approvalLevel).Inc()
}

// RecordLLMTokens records LLM token usage for a stage.
func (e *Exporter) RecordLLMTokens(stage, tokenType string, count int) {
	e.llmTokens.WithLabelValues(stage, tokenType).Add(float64(count))
}

// RecordSearchQuery records one web search query.
func (e *Exporter) RecordSearchQuery(provider string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.searchQueries.WithLabelValues(provider, status).Inc()
}

// RecordOrder records one order execution.
func (e *Exporter) RecordOrder(provider string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.orders.WithLabelValues(provider, status).Inc()
}

// RecordCacheHit records a cache hit.
func (e *Exporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *Exporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
