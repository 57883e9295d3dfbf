// Package extract turns free text into todo candidates using the configured
// text service, with open todos as context.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kimhsiao/fragmind/internal/analysis"
	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/metrics"
	"github.com/kimhsiao/fragmind/internal/models"
)

// Status is the outcome of an extraction.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"

	// StatusStorageFailed means the open todos could not be read; the text
	// service was not called.
	StatusStorageFailed Status = "storage_failed"
)

// Outcome is the result of one extraction. Candidates is empty unless
// Status is StatusOK.
type Outcome struct {
	Candidates []analysis.TodoCandidate
	Status     Status
	Err        error
}

// Orchestrator runs todo extraction.
type Orchestrator struct {
	extractor analysis.TodoExtractor
	todos     db.TodoRepository
	now       func() time.Time
	log       *logging.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the time source used for date grounding.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates an orchestrator. A nil extractor behaves as
// unconfigured.
func NewOrchestrator(extractor analysis.TodoExtractor, todos db.TodoRepository, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor: extractor,
		todos:     todos,
		now:       time.Now,
		log:       logging.Get().Named("extract"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DateContext renders the grounding line for relative dates.
func DateContext(t time.Time) string {
	return fmt.Sprintf("Today is %s (%s).", t.Format(models.DateLayout), t.Weekday())
}

// Extract derives todo candidates from text. Nothing is stored.
func (o *Orchestrator) Extract(ctx context.Context, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Status: StatusOK}
	}
	if o.extractor == nil || !o.extractor.Available() {
		metrics.RecordExtraction(string(StatusUnavailable), 0)
		return Outcome{Status: StatusUnavailable}
	}

	titles, err := o.todos.ActiveTodoTitles(ctx)
	if err != nil {
		o.log.Error("failed to read open todos", err)
		return Outcome{Status: StatusStorageFailed, Err: err}
	}

	now := o.now()
	candidates, err := o.extractor.ExtractTodos(ctx, analysis.ExtractionRequest{
		Text:         text,
		ActiveTitles: titles,
		DateContext:  DateContext(now),
		Now:          now,
	})
	if apperrors.Is(err, apperrors.ErrAINotConfigured) {
		metrics.RecordExtraction(string(StatusUnavailable), 0)
		return Outcome{Status: StatusUnavailable}
	}
	if err != nil {
		return o.failed(err)
	}

	metrics.RecordExtraction(string(StatusOK), len(candidates))
	o.log.Debug("extracted todo candidates", map[string]interface{}{"count": len(candidates)})
	return Outcome{Candidates: candidates, Status: StatusOK}
}

func (o *Orchestrator) failed(err error) Outcome {
	metrics.RecordExtraction(string(StatusFailed), 0)
	o.log.Warn("todo extraction failed", map[string]interface{}{
		"code":  string(apperrors.CodeOf(err)),
		"error": err.Error(),
	})
	return Outcome{Status: StatusFailed, Err: err}
}

// ExtractAndStore extracts candidates and stores all of them as pending
// todos in one transaction. The returned error is a storage failure only;
// extraction problems are reported through the Outcome.
func (o *Orchestrator) ExtractAndStore(ctx context.Context, text string) ([]*models.TodoItem, Outcome, error) {
	out := o.Extract(ctx, text)
	if out.Status == StatusStorageFailed {
		return nil, out, out.Err
	}
	if out.Status != StatusOK || len(out.Candidates) == 0 {
		return nil, out, nil
	}

	now := o.now()
	items := make([]*models.TodoItem, len(out.Candidates))
	for i, c := range out.Candidates {
		items[i] = models.NewTodo(c.Title, c.Due, now)
	}
	if err := o.todos.CreateTodos(ctx, items); err != nil {
		o.log.Error("failed to store extracted todos", err, map[string]interface{}{"count": len(items)})
		return nil, out, err
	}
	return items, out, nil
}

// ExtractAsync runs Extract off the caller's goroutine. The channel receives
// exactly one Outcome and is then closed.
func (o *Orchestrator) ExtractAsync(ctx context.Context, text string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- o.Extract(ctx, text)
	}()
	return ch
}
