package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generations
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contractgen_generations_total",
			Help: "Number of contract generations by language and result",
		},
		[]string{"language", "result"}, // result: succeeded|template_load|upstream|extraction|internal
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contractgen_generation_duration_seconds",
			Help:    "Histogram of end-to-end generation durations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s..128s
		},
	)

	// Templates
	TemplateLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contractgen_template_loads_total",
			Help: "Reference template reads by result",
		},
		[]string{"result"}, // result: ok|error
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contractgen_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)
	LLMDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contractgen_llm_request_duration_seconds",
			Help:    "Duration of upstream chat completion calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		},
		[]string{"model"},
	)

	// History store ops
	HistoryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contractgen_history_ops_total",
			Help: "Generation history operations performed",
		},
		[]string{"op"}, // op: put|get|list
	)

	// Websockets
	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contractgen_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contractgen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		TemplateLoads,
		LLMRequests,
		LLMDurationSeconds,
		HistoryOps,
		WebsocketConnections,
		Errors,
	)
}

// StartMetricsServer serves /metrics on a dedicated listener. It blocks.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// Generations
func IncGeneration(language, result string) {
	Generations.WithLabelValues(language, result).Inc()
}

func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

// Templates
func IncTemplateLoad(result string) {
	TemplateLoads.WithLabelValues(result).Inc()
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

func ObserveLLMDuration(model string, d time.Duration) {
	LLMDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// History
func IncHistoryOp(op string) {
	HistoryOps.WithLabelValues(op).Inc()
}

// Websocket
func IncWSConnections() {
	WebsocketConnections.Inc()
}

func DecWSConnections() {
	WebsocketConnections.Dec()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
