package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	WorkflowsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minerva_workflows_started_total",
			Help: "Total number of research workflows started",
		},
	)

	WorkflowsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minerva_workflows_completed_total",
			Help: "Total number of research workflows finalized",
		},
	)

	// Activity metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_agent_calls_total",
			Help: "Total number of agent platform calls",
		},
		[]string{"activity", "role", "status"}, // status: success|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minerva_agent_latency_seconds",
			Help:    "Agent platform call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"activity", "role"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_agent_tokens_total",
			Help: "Total tokens consumed by agent conversations",
		},
		[]string{"role", "type"}, // type: input|output
	)

	// Result query metrics
	ResultQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minerva_result_queries_total",
			Help: "Total number of result queries",
		},
		[]string{"outcome"}, // outcome: ready|running|error
	)
)

// Register registers all metrics with the default registry.
// Call once at startup.
func Register() {
	prometheus.MustRegister(
		WorkflowsStarted,
		WorkflowsCompleted,
		AgentCalls,
		AgentLatency,
		AgentTokens,
		ResultQueries,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
