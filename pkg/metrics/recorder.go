// Package metrics provides Prometheus-based metrics recording for analysis
// runs and a query service for aggregating them from a Prometheus server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics sink consulted by the dispatcher, the narrative
// wrapper, and the orchestrator.
type Recorder interface {
	ObserveAgentCall(role, status string, duration time.Duration)
	ObserveGenerativeCall(provider, model string, promptTokens, completionTokens int, success bool, errorType string, duration time.Duration)
	IncNarrativeRetry(provider string)
	IncNarrativeFallback(provider string)
	ObserveAnalysis(recommendation string, degraded bool, duration time.Duration)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	agentCallsTotal    *prometheus.CounterVec
	agentDuration      *prometheus.HistogramVec
	generativeTotal    *prometheus.CounterVec
	generativeTokens   *prometheus.CounterVec
	generativeDuration *prometheus.HistogramVec
	retriesTotal       *prometheus.CounterVec
	fallbacksTotal     *prometheus.CounterVec
	analysesTotal      *prometheus.CounterVec
	analysisDuration   *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a Prometheus-based metrics recorder. Metrics
// register on the default registry, so construct at most one per process.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		agentCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_agent_calls_total",
				Help: "Total number of capability agent calls by role and outcome status",
			},
			[]string{"role", "status"},
		),
		agentDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reia_agent_duration_seconds",
				Help:    "Duration of capability agent calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"role"},
		),
		generativeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_generative_requests_total",
				Help: "Total number of generative model requests by provider, model, and status",
			},
			[]string{"provider", "model", "status", "error_type"},
		),
		generativeTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_generative_tokens_total",
				Help: "Total number of tokens used in generative requests",
			},
			[]string{"provider", "model", "type"},
		),
		generativeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reia_generative_duration_seconds",
				Help:    "Duration of generative model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		retriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_narrative_retries_total",
				Help: "Total number of narrative generation retry attempts",
			},
			[]string{"provider"},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_narrative_fallbacks_total",
				Help: "Total number of analyses that used the rule-based fallback narrative",
			},
			[]string{"provider"},
		),
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reia_analyses_total",
				Help: "Total number of completed analyses by recommendation and degradation",
			},
			[]string{"recommendation", "degraded"},
		),
		analysisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reia_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
			},
			[]string{"degraded"},
		),
	}
}

// ObserveAgentCall records the outcome of one capability agent call.
func (p *PrometheusRecorder) ObserveAgentCall(role, status string, duration time.Duration) {
	p.agentCallsTotal.WithLabelValues(role, status).Inc()
	p.agentDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// ObserveGenerativeCall records a completed generative model request.
func (p *PrometheusRecorder) ObserveGenerativeCall(
	provider, model string,
	promptTokens, completionTokens int,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "success"
	if !success {
		status = "error"
	}
	p.generativeTotal.WithLabelValues(provider, model, status, errorType).Inc()
	if success {
		p.generativeTokens.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
		p.generativeTokens.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
	p.generativeDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// IncNarrativeRetry counts one retry attempt.
func (p *PrometheusRecorder) IncNarrativeRetry(provider string) {
	p.retriesTotal.WithLabelValues(provider).Inc()
}

// IncNarrativeFallback counts one fallback activation.
func (p *PrometheusRecorder) IncNarrativeFallback(provider string) {
	p.fallbacksTotal.WithLabelValues(provider).Inc()
}

// ObserveAnalysis records one completed analysis.
func (p *PrometheusRecorder) ObserveAnalysis(recommendation string, degraded bool, duration time.Duration) {
	degradedLabel := "false"
	if degraded {
		degradedLabel = "true"
	}
	p.analysesTotal.WithLabelValues(recommendation, degradedLabel).Inc()
	p.analysisDuration.WithLabelValues(degradedLabel).Observe(duration.Seconds())
}

// NopRecorder discards all observations. Used when metrics are disabled and
// in tests.
type NopRecorder struct{}

func (NopRecorder) ObserveAgentCall(string, string, time.Duration) {}
func (NopRecorder) ObserveGenerativeCall(string, string, int, int, bool, string, time.Duration) {
}
func (NopRecorder) IncNarrativeRetry(string)                        {}
func (NopRecorder) IncNarrativeFallback(string)                     {}
func (NopRecorder) ObserveAnalysis(string, bool, time.Duration)     {}
