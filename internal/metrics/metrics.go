// Package metrics defines the Prometheus collectors recorded by the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
	LLMTokens     *prometheus.CounterVec
	ToolCalls     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_engine_runs_total",
				Help: "Pipeline runs by final status",
			},
			[]string{"status"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usecase_engine_stage_duration_seconds",
				Help:    "Duration of each pipeline stage",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		StageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_engine_stage_failures_total",
				Help: "Pipeline stage failures",
			},
			[]string{"stage"},
		),
		LLMTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_engine_llm_tokens_total",
				Help: "Tokens consumed by model calls",
			},
			[]string{"backend", "direction"},
		),
		ToolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_engine_tool_calls_total",
				Help: "Agent tool invocations",
			},
			[]string{"tool", "outcome"},
		),
	}
}

// ObserveStage records a stage's duration and, when err is non-nil, a failure.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// AddTokens counts model input and output tokens.
func (m *Metrics) AddTokens(backend string, in, out int) {
	if m == nil {
		return
	}
	m.LLMTokens.WithLabelValues(backend, "input").Add(float64(in))
	m.LLMTokens.WithLabelValues(backend, "output").Add(float64(out))
}

// ObserveTool counts one tool invocation.
func (m *Metrics) ObserveTool(tool string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}
