package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/todo"
)

// Format selects the output document type.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ExportService renders journals from the stores.
type ExportService struct {
	fragments db.FragmentRepository
	summaries db.SummaryRepository
	todos     db.TodoRepository
	dir       string
	now       func() time.Time
	md        goldmark.Markdown
}

// Option customizes an ExportService.
type Option func(*ExportService)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *ExportService) { s.now = now }
}

// NewExportService creates an ExportService writing into dir by default.
func NewExportService(fragments db.FragmentRepository, summaries db.SummaryRepository, todos db.TodoRepository, dir string, opts ...Option) *ExportService {
	s := &ExportService{
		fragments: fragments,
		summaries: summaries,
		todos:     todos,
		dir:       dir,
		now:       time.Now,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportConfig holds export configuration.
type ExportConfig struct {
	// Date is the day to export; today when empty.
	Date string
	// OutputPath overrides the default file location.
	OutputPath string
	Format     Format
}

// ExportResult represents the result of an export operation.
type ExportResult struct {
	FilePath      string
	SizeBytes     int64
	FragmentCount int
	TodoCount     int
	HasSummary    bool
	Checksum      string
	Duration      time.Duration
}

// Export writes the journal of config.Date.
func (s *ExportService) Export(ctx context.Context, config *ExportConfig) (*ExportResult, error) {
	startTime := s.now()

	date := config.Date
	if date == "" {
		date = models.DayKey(startTime)
	}
	if _, err := models.ParseDay(date); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid export date", err)
	}
	format := config.Format
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		return nil, apperrors.Newf(apperrors.ErrValidation, "unsupported export format %q", format)
	}

	journal, err := s.collect(ctx, date)
	if err != nil {
		return nil, err
	}

	data := RenderMarkdown(journal)
	if format == FormatHTML {
		if data, err = s.renderHTML(journal, data); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrExportFailed, "render html", err)
		}
	}

	path := config.OutputPath
	if path == "" {
		path = filepath.Join(s.dir, fmt.Sprintf("fragmind_%s.%s", date, format))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to create exports directory", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to write export", err)
	}

	return &ExportResult{
		FilePath:      path,
		SizeBytes:     int64(len(data)),
		FragmentCount: len(journal.Fragments),
		TodoCount:     len(journal.Todos),
		HasSummary:    journal.Summary != "",
		Checksum:      fmt.Sprintf("%x", sha256.Sum256(data)),
		Duration:      s.now().Sub(startTime),
	}, nil
}

// collect gathers everything recorded for date.
func (s *ExportService) collect(ctx context.Context, date string) (*Journal, error) {
	frags, err := s.fragments.ListFragmentsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	j := &Journal{Date: date, Fragments: frags}

	summary, err := s.summaries.GetSummary(ctx, date)
	switch {
	case err == nil:
		j.Summary = summary.Summary
	case !apperrors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	items, err := s.todos.ListTodos(ctx)
	if err != nil {
		return nil, err
	}
	j.Todos = todosDueOn(items, date)
	return j, nil
}

// todosDueOn returns the todos due on date in board order, pending first.
func todosDueOn(items []*models.TodoItem, date string) []todo.BoardItem {
	board := todo.BuildBoard(items)
	var out []todo.BoardItem
	for _, g := range board.Pending {
		if g.Day == date {
			out = append(out, g.Items...)
		}
	}
	for _, bi := range board.Completed {
		if due, ok := bi.Item.DueTime(); ok && models.DayKey(due) == date {
			out = append(out, bi)
		}
	}
	return out
}

func (s *ExportService) renderHTML(j *Journal, markdown []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := s.md.Convert(markdown, &body); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		todo.DayLabel(j.Date))
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
