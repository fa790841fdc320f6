// Package metrics holds the Prometheus collectors for the question pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeCorrected = "corrected"
	OutcomeFallback  = "fallback"
	OutcomeFailed    = "failed"
)

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_ask_requests_total",
			Help: "Total number of questions and replays by result.",
		},
		[]string{"kind", "result"},
	)
	generationOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_sql_generation_outcomes_total",
			Help: "SQL generation outcomes per dialect.",
		},
		[]string{"dialect", "outcome"},
	)
	llmLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_llm_latency_ms",
			Help:    "LLM call latency in milliseconds per task.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000, 300000},
		},
		[]string{"task"},
	)
	executionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_query_execution_latency_ms",
			Help:    "Generated SQL execution latency in milliseconds per dialect.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000, 120000},
		},
		[]string{"dialect"},
	)
	executionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_query_execution_failures_total",
			Help: "Total number of driver errors while executing generated SQL.",
		},
		[]string{"dialect"},
	)
	cacheSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_response_cache_saves_total",
			Help: "Response cache writes by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		askRequestsTotal,
		generationOutcomesTotal,
		llmLatencyMs,
		executionLatencyMs,
		executionFailuresTotal,
		cacheSavesTotal,
	)
}

// ObserveAsk counts a finished ask or replay. kind is "ask" or "replay".
func ObserveAsk(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	askRequestsTotal.WithLabelValues(kind, result).Inc()
}

func ObserveGeneration(dialect, outcome string) {
	generationOutcomesTotal.WithLabelValues(dialect, outcome).Inc()
}

func ObserveLLMLatency(task string, elapsed time.Duration) {
	llmLatencyMs.WithLabelValues(task).Observe(float64(elapsed.Milliseconds()))
}

// ObserveExecution records one statement execution.
func ObserveExecution(dialect string, elapsed time.Duration, failed bool) {
	executionLatencyMs.WithLabelValues(dialect).Observe(float64(elapsed.Milliseconds()))
	if failed {
		executionFailuresTotal.WithLabelValues(dialect).Inc()
	}
}

func ObserveCacheSave(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheSavesTotal.WithLabelValues(result).Inc()
}
