// Package diary regenerates a day's narrative summary from its fragments.
//
// Engine composes the request and decides the outcome without touching
// storage. Service reads the inputs, runs the engine, and decides what is
// persisted.
package diary

import (
	"context"
	"sort"
	"strings"

	"github.com/kimhsiao/fragmind/internal/analysis"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/metrics"
	"github.com/kimhsiao/fragmind/internal/models"
)

// NothingRecorded is returned for a day without fragments.
const NothingRecorded = "Nothing was recorded on this day."

// Mode tells whether a prior summary took part.
type Mode string

const (
	ModeFresh   Mode = "fresh"
	ModeRewrite Mode = "rewrite"
)

// Status is the outcome of a generation.
type Status string

const (
	// StatusOK means Text was written by the summarizer.
	StatusOK Status = "ok"
	// StatusEmpty means there were no fragments; Text is NothingRecorded.
	StatusEmpty Status = "empty"
	// StatusUnavailable means no credential is configured; Text is the fallback.
	StatusUnavailable Status = "unavailable"
	// StatusFailed means the call failed or timed out; Text is the fallback.
	StatusFailed Status = "failed"
)

// Input is everything a generation reads.
type Input struct {
	Date      string
	Fragments []*models.Fragment
	// Prior is the currently stored summary, empty when there is none.
	Prior string
}

// Result is the outcome of one generation.
type Result struct {
	Date   string
	Text   string
	Mode   Mode
	Status Status
	// Synthesized is true only when Text came from the summarizer.
	Synthesized bool
	// EntryCount is the number of fragments used as input.
	EntryCount int
	// Err is the summarizer error behind StatusUnavailable or StatusFailed.
	Err error
	// Stale is set by Service when the fragments changed while the call was
	// in flight; such a result is never persisted.
	Stale bool
	// Saved is set by Service when the result was persisted.
	Saved bool
}

// Engine builds summary requests and interprets the summarizer's reply.
type Engine struct {
	summarizer     analysis.Summarizer
	styleDirective string
	log            *logging.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithStyleDirective sets the user's standing instruction for summaries.
func WithStyleDirective(d string) EngineOption {
	return func(e *Engine) { e.styleDirective = strings.TrimSpace(d) }
}

// WithEngineLogger replaces the logger.
func WithEngineLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine. A nil summarizer behaves as unconfigured.
func NewEngine(s analysis.Summarizer, opts ...EngineOption) *Engine {
	e := &Engine{summarizer: s, log: logging.Get().Named("diary")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate produces the summary for in. It never reads or writes storage.
func (e *Engine) Generate(ctx context.Context, in Input) Result {
	frags := sortedFragments(in.Fragments)
	prior := strings.TrimSpace(in.Prior)

	res := Result{Date: in.Date, Mode: ModeFresh, EntryCount: len(frags)}
	if prior != "" {
		res.Mode = ModeRewrite
	}
	defer func() { metrics.RecordSummaryGeneration(string(res.Mode), string(res.Status)) }()

	if len(frags) == 0 {
		res.Status = StatusEmpty
		res.Text = NothingRecorded
		return res
	}

	if e.summarizer == nil || !e.summarizer.Available() {
		res.Status = StatusUnavailable
		res.Text = fallbackText(frags)
		res.Err = apperrors.New(apperrors.ErrAINotConfigured, "no AI credential configured")
		return res
	}

	req := analysis.SummaryRequest{
		Date:           in.Date,
		Facts:          factLines(frags),
		StyleDirective: e.styleDirective,
	}
	if res.Mode == ModeRewrite {
		req.StyleReference = prior
	}

	text, err := e.summarizer.Summarize(ctx, req)
	if err != nil {
		res.Status = StatusFailed
		if apperrors.Is(err, apperrors.ErrAINotConfigured) {
			res.Status = StatusUnavailable
		}
		res.Text = fallbackText(frags)
		res.Err = err
		e.log.Warn("summary generation fell back to raw fragments", map[string]interface{}{
			"date":   in.Date,
			"mode":   string(res.Mode),
			"status": string(res.Status),
			"error":  err.Error(),
		})
		return res
	}

	res.Status = StatusOK
	res.Text = text
	res.Synthesized = true
	return res
}

// sortedFragments returns a copy ordered by creation time, stable for ties.
func sortedFragments(in []*models.Fragment) []*models.Fragment {
	out := make([]*models.Fragment, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func factLines(frags []*models.Fragment) []analysis.FactLine {
	lines := make([]analysis.FactLine, len(frags))
	for i, f := range frags {
		lines[i] = analysis.FactLine{Clock: f.Clock(), Content: f.Content}
	}
	return lines
}

// fallbackText joins fragment contents with a blank line.
func fallbackText(frags []*models.Fragment) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Content
	}
	return strings.Join(parts, "\n\n")
}
