package diary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/metrics"
	"github.com/kimhsiao/fragmind/internal/models"
)

const (
	// DefaultRecentFragments is the default size of the recent notes list.
	DefaultRecentFragments = 10
	// DefaultRecentSummaries is the default size of the recent summaries list.
	DefaultRecentSummaries = 7
)

// Update is delivered by RegenerateAsync.
type Update struct {
	Result Result
	// Err is a storage failure; the generation did not run or was not saved.
	Err error
}

// Service owns the fragments and summaries of the diary.
type Service struct {
	fragments db.FragmentRepository
	summaries db.SummaryRepository
	engine    *Engine
	now       func() time.Time
	log       *logging.Logger

	inflight singleflight.Group
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithServiceClock replaces the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithServiceLogger replaces the logger.
func WithServiceLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// NewService creates a diary service.
func NewService(fragments db.FragmentRepository, summaries db.SummaryRepository, engine *Engine, opts ...ServiceOption) *Service {
	s := &Service{
		fragments: fragments,
		summaries: summaries,
		engine:    engine,
		now:       time.Now,
		log:       logging.Get().Named("diary"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day key.
func (s *Service) Today() string {
	return models.DayKey(s.now())
}

// Regenerate produces the summary of date and persists it when the
// summarizer succeeded and the fragments did not change in the meantime.
// Fallback and empty results are returned but never saved. Concurrent calls
// for the same date share one generation.
func (s *Service) Regenerate(ctx context.Context, date string) (Result, error) {
	if date == "" {
		date = s.Today()
	}
	v, err, _ := s.inflight.Do(date, func() (interface{}, error) {
		return s.regenerate(ctx, date)
	})
	if err != nil {
		return Result{Date: date}, err
	}
	return v.(Result), nil
}

func (s *Service) regenerate(ctx context.Context, date string) (Result, error) {
	frags, err := s.fragments.ListFragmentsByDate(ctx, date)
	if err != nil {
		return Result{}, err
	}
	prior, err := s.priorText(ctx, date)
	if err != nil {
		return Result{}, err
	}

	res := s.engine.Generate(ctx, Input{Date: date, Fragments: frags, Prior: prior})
	if res.Status != StatusOK {
		return res, nil
	}

	current, err := s.fragments.ListFragmentsByDate(ctx, date)
	if err != nil {
		return res, err
	}
	if fingerprint(current) != fingerprint(frags) {
		res.Stale = true
		metrics.RecordSummaryDiscarded()
		s.log.Info("discarding summary generated from outdated fragments", map[string]interface{}{"date": date})
		return res, nil
	}

	summary := &models.DiarySummary{Date: date, Summary: res.Text, EntryCount: res.EntryCount}
	if err := s.summaries.UpsertSummary(ctx, summary); err != nil {
		s.log.Error("failed to save summary", err, map[string]interface{}{"date": date})
		return res, err
	}
	res.Saved = true
	return res, nil
}

func (s *Service) priorText(ctx context.Context, date string) (string, error) {
	prior, err := s.summaries.GetSummary(ctx, date)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return prior.Summary, nil
}

// RegenerateAsync runs Regenerate off the caller's goroutine. The channel
// receives exactly one Update and is then closed.
func (s *Service) RegenerateAsync(ctx context.Context, date string) <-chan Update {
	ch := make(chan Update, 1)
	go func() {
		defer close(ch)
		res, err := s.Regenerate(ctx, date)
		ch <- Update{Result: res, Err: err}
	}()
	return ch
}

// Save stores text as the summary of date, recording the current fragment
// count. Used for manual edits and confirmed fallbacks.
func (s *Service) Save(ctx context.Context, date, text string) (*models.DiarySummary, error) {
	if date == "" {
		date = s.Today()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "summary text must not be empty")
	}
	n, err := s.fragments.CountFragments(ctx, date)
	if err != nil {
		return nil, err
	}
	summary := &models.DiarySummary{Date: date, Summary: text, EntryCount: n}
	if err := s.summaries.UpsertSummary(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// AddFragment records a note on date, or today when date is empty.
func (s *Service) AddFragment(ctx context.Context, content, date string) (*models.Fragment, error) {
	f := models.NewFragment(content, date, s.now())
	if err := s.fragments.CreateFragment(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// EditFragment replaces a note's content.
func (s *Service) EditFragment(ctx context.Context, id, content string) (*models.Fragment, error) {
	if err := s.fragments.UpdateFragmentContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.fragments.GetFragment(ctx, id)
}

// DeleteFragment removes a note.
func (s *Service) DeleteFragment(ctx context.Context, id string) error {
	return s.fragments.DeleteFragment(ctx, id)
}

// Fragments returns the notes of date, oldest first.
func (s *Service) Fragments(ctx context.Context, date string) ([]*models.Fragment, error) {
	if date == "" {
		date = s.Today()
	}
	return s.fragments.ListFragmentsByDate(ctx, date)
}

// RecentFragments returns the newest n notes across all days.
func (s *Service) RecentFragments(ctx context.Context, n int) ([]*models.Fragment, error) {
	if n <= 0 {
		n = DefaultRecentFragments
	}
	return s.fragments.RecentFragments(ctx, n)
}

// Summary returns the stored summary of date.
func (s *Service) Summary(ctx context.Context, date string) (*models.DiarySummary, error) {
	if date == "" {
		date = s.Today()
	}
	return s.summaries.GetSummary(ctx, date)
}

// RecentSummaries returns the newest n summaries by date.
func (s *Service) RecentSummaries(ctx context.Context, n int) ([]*models.DiarySummary, error) {
	if n <= 0 {
		n = DefaultRecentSummaries
	}
	return s.summaries.RecentSummaries(ctx, n)
}

// fingerprint identifies a fragment set by ids and contents.
func fingerprint(frags []*models.Fragment) string {
	h := sha256.New()
	for _, f := range frags {
		h.Write([]byte(f.ID))
		h.Write([]byte{0})
		h.Write([]byte(f.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
