// Package analysis talks to the external text-understanding service that
// writes diary summaries and extracts todos from free text.
package analysis

import (
	"context"
	"fmt"
	"time"
)

// FactLine is one fragment as presented to the summarizer.
type FactLine struct {
	Clock   string // HH:MM of the fragment's creation
	Content string
}

// String renders the line as "[HH:MM] content".
func (f FactLine) String() string {
	return fmt.Sprintf("[%s] %s", f.Clock, f.Content)
}

// SummaryRequest carries everything a summarizer may use.
//
// Facts is the only source of facts. StyleReference, when set, is a previous
// summary usable for tone and voice only; it must never contribute facts.
// StyleDirective is the user's own standing instruction.
type SummaryRequest struct {
	Date           string
	Facts          []FactLine
	StyleReference string
	StyleDirective string
}

// Rewrite reports whether a prior summary is supplied.
func (r SummaryRequest) Rewrite() bool {
	return r.StyleReference != ""
}

// ExtractionRequest carries the text to mine for todos and its context.
type ExtractionRequest struct {
	Text string
	// ActiveTitles are existing open todos, given as context only.
	ActiveTitles []string
	// DateContext grounds relative dates, e.g. "Today is 2024-01-01 (Monday)."
	DateContext string
	Now         time.Time
}

// TodoCandidate is one extracted todo. Due is nil when no time could be resolved.
type TodoCandidate struct {
	Title string
	Due   *time.Time
}

// Summarizer writes a narrative summary from fact lines.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
	Available() bool
}

// TodoExtractor derives todo candidates from free text.
type TodoExtractor interface {
	ExtractTodos(ctx context.Context, req ExtractionRequest) ([]TodoCandidate, error)
	Available() bool
}

// Ensure *AIClient implements the interfaces at compile time.
var (
	_ Summarizer    = (*AIClient)(nil)
	_ TodoExtractor = (*AIClient)(nil)
)
