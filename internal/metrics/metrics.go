// Package metrics provides in-process Prometheus metrics for FragMind. The
// metrics are never pushed anywhere; the CLI can print them on request.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Grace-window events recorded by the todo lifecycle controller.
const (
	GraceStarted      = "started"
	GraceCancelled    = "cancelled"
	GraceCommitted    = "committed"
	GraceCommitFailed = "commit_failed"
	GraceRejected     = "rejected"
	GraceRestored     = "restored"
)

const namePrefix = "fragmind_"

var (
	// graceEventsTotal counts todo grace-window transitions.
	// Labels:
	//   - event: one of the Grace* constants
	graceEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragmind_todo_grace_events_total",
			Help: "Todo completion grace-window transitions",
		},
		[]string{"event"},
	)

	// summaryGenerationsTotal counts summary engine runs.
	// Labels:
	//   - mode: "fresh" or "rewrite"
	//   - status: "ok", "empty", "unavailable", "failed"
	summaryGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragmind_summary_generations_total",
			Help: "Diary summary generations by mode and status",
		},
		[]string{"mode", "status"},
	)

	// summaryDiscardedTotal counts results dropped because fragments changed
	// while the generation was in flight.
	summaryDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fragmind_summary_stale_discards_total",
			Help: "Summary results discarded because their input changed",
		},
	)

	// extractionsTotal counts extraction outcomes.
	// Labels:
	//   - status: "ok", "unavailable", "failed"
	extractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragmind_todo_extractions_total",
			Help: "Todo extraction attempts by outcome",
		},
		[]string{"status"},
	)

	// extractedCandidatesTotal counts todo candidates returned by extraction.
	extractedCandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fragmind_todo_extracted_candidates_total",
			Help: "Todo candidates returned by extraction",
		},
	)

	// aiRequestDuration records external text-service call latency.
	// Labels:
	//   - provider: "deepseek", "openai", "claude", "ollama"
	//   - operation: "summarize" or "extract_todos"
	//   - result: "ok", "error", "timeout", "rejected"
	aiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fragmind_ai_request_duration_seconds",
			Help:    "Duration of external AI requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "operation", "result"},
	)

	// breakerState tracks the AI circuit breaker state (0 closed, 1 half-open, 2 open).
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fragmind_ai_breaker_state",
			Help: "AI circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(graceEventsTotal)
	prometheus.MustRegister(summaryGenerationsTotal)
	prometheus.MustRegister(summaryDiscardedTotal)
	prometheus.MustRegister(extractionsTotal)
	prometheus.MustRegister(extractedCandidatesTotal)
	prometheus.MustRegister(aiRequestDuration)
	prometheus.MustRegister(breakerState)
}

// RecordGraceEvent records a todo grace-window transition.
func RecordGraceEvent(event string) {
	graceEventsTotal.WithLabelValues(event).Inc()
}

// RecordSummaryGeneration records one summary engine run.
func RecordSummaryGeneration(mode, status string) {
	summaryGenerationsTotal.WithLabelValues(mode, status).Inc()
}

// RecordSummaryDiscarded records a stale summary result that was not saved.
func RecordSummaryDiscarded() {
	summaryDiscardedTotal.Inc()
}

// RecordExtraction records an extraction outcome and its candidate count.
func RecordExtraction(status string, candidates int) {
	extractionsTotal.WithLabelValues(status).Inc()
	extractedCandidatesTotal.Add(float64(candidates))
}

// RecordAIRequest records the latency of one external AI call.
func RecordAIRequest(provider, operation, result string, seconds float64) {
	aiRequestDuration.WithLabelValues(provider, operation, result).Observe(seconds)
}

// SetBreakerState records the circuit breaker state.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers the FragMind metrics from the default registry. Histograms
// are reported as their observation count.
func Snapshot() ([]Sample, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namePrefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			out = append(out, Sample{Name: mf.GetName(), Labels: labels(m), Value: value(mf.GetType(), m)})
		}
	}
	return out, nil
}

func labels(m *dto.Metric) map[string]string {
	if len(m.GetLabel()) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}
