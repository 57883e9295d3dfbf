package extract

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/fragmind/internal/analysis"
	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/models"
)

type fakeExtractor struct {
	mu         sync.Mutex
	available  bool
	candidates []analysis.TodoCandidate
	err        error
	reqs       []analysis.ExtractionRequest
}

func (f *fakeExtractor) Available() bool { return f.available }

func (f *fakeExtractor) ExtractTodos(ctx context.Context, req analysis.ExtractionRequest) ([]analysis.TodoCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.candidates, f.err
}

func (f *fakeExtractor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fixture struct {
	repo *db.Repository
	ext  *fakeExtractor
	orch *Orchestrator
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	repo := db.NewRepository(conn.DB)
	t.Cleanup(func() {
		repo.Close()
		conn.Close()
	})

	now, _ := models.ParseDay("2024-01-01")
	now = now.Add(8 * time.Hour)
	f := &fixture{repo: repo, ext: &fakeExtractor{available: true}, now: now}
	f.orch = NewOrchestrator(f.ext, repo,
		WithClock(func() time.Time { return f.now }),
		WithLogger(logging.Nop()),
	)
	return f
}

func TestDateContext(t *testing.T) {
	d, _ := models.ParseDay("2024-01-01")
	assert.Equal(t, "Today is 2024-01-01 (Monday).", DateContext(d))
}

func TestExtract_blankTextSkipsCall(t *testing.T) {
	f := newFixture(t)
	out := f.orch.Extract(context.Background(), "  \n ")
	assert.Equal(t, StatusOK, out.Status)
	assert.Empty(t, out.Candidates)
	assert.Zero(t, f.ext.calls())
}

func TestExtract_unavailable(t *testing.T) {
	f := newFixture(t)
	f.ext.available = false

	out := f.orch.Extract(context.Background(), "call the bank tomorrow")
	assert.Equal(t, StatusUnavailable, out.Status)
	assert.Empty(t, out.Candidates)
	assert.NoError(t, out.Err)
	assert.Zero(t, f.ext.calls())
}

func TestExtract_nilExtractorIsUnavailable(t *testing.T) {
	f := newFixture(t)
	orch := NewOrchestrator(nil, f.repo, WithLogger(logging.Nop()))
	out := orch.Extract(context.Background(), "anything")
	assert.Equal(t, StatusUnavailable, out.Status)
}

func TestExtract_passesOpenTitlesAndDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	open := models.NewTodo("buy milk", nil, f.now)
	done := models.NewTodo("file taxes", nil, f.now)
	require.NoError(t, f.repo.CreateTodos(ctx, []*models.TodoItem{open, done}))
	_, err := f.repo.SetTodoCompletion(ctx, string(done.ID), true, f.now)
	require.NoError(t, err)

	due := f.now.Add(26 * time.Hour)
	f.ext.candidates = []analysis.TodoCandidate{{Title: "call the bank", Due: &due}}

	out := f.orch.Extract(ctx, "  call the bank tomorrow at 10  ")
	require.Equal(t, StatusOK, out.Status)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "call the bank", out.Candidates[0].Title)

	req := f.ext.reqs[0]
	assert.Equal(t, "call the bank tomorrow at 10", req.Text)
	assert.Equal(t, []string{"buy milk"}, req.ActiveTitles)
	assert.Equal(t, "Today is 2024-01-01 (Monday).", req.DateContext)
	assert.True(t, req.Now.Equal(f.now))

	// context only: nothing was stored
	items, err := f.repo.ListTodos(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestExtract_failureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.ext.candidates = []analysis.TodoCandidate{{Title: "ignored"}}
	f.ext.err = apperrors.New(apperrors.ErrAITimeout, "request timed out")

	out := f.orch.Extract(context.Background(), "something")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Empty(t, out.Candidates)
	assert.True(t, apperrors.Is(out.Err, apperrors.ErrAITimeout))
}

func TestExtract_notConfiguredErrorIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.ext.err = apperrors.New(apperrors.ErrAINotConfigured, "no key")

	out := f.orch.Extract(context.Background(), "something")
	assert.Equal(t, StatusUnavailable, out.Status)
	assert.NoError(t, out.Err)
}

func TestExtractAndStore_storesAllCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	due := time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local)
	f.ext.candidates = []analysis.TodoCandidate{
		{Title: "call the bank", Due: &due},
		{Title: "water plants"},
	}

	items, out, err := f.orch.ExtractAndStore(ctx, "call the bank tomorrow at 10, water plants")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, out.Status)
	require.Len(t, items, 2)

	stored, err := f.repo.GetTodo(ctx, string(items[0].ID))
	require.NoError(t, err)
	assert.False(t, stored.Completed)
	got, ok := stored.DueTime()
	require.True(t, ok)
	assert.True(t, got.Equal(due))

	second, err := f.repo.GetTodo(ctx, string(items[1].ID))
	require.NoError(t, err)
	assert.Nil(t, second.DueDate)
}

func TestExtractAndStore_isAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ext.candidates = []analysis.TodoCandidate{
		{Title: "fine"},
		{Title: strings.Repeat("x", models.MaxTitleLength+1)},
	}

	items, out, err := f.orch.ExtractAndStore(ctx, "text")
	require.Error(t, err)
	assert.Equal(t, StatusOK, out.Status)
	assert.Nil(t, items)

	all, err := f.repo.ListTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExtractAndStore_failureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.ext.err = apperrors.New(apperrors.ErrAIFailed, "boom")

	items, out, err := f.orch.ExtractAndStore(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Nil(t, items)
}

func TestExtract_storageFailureIsReturned(t *testing.T) {
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	repo := db.NewRepository(conn.DB)
	require.NoError(t, conn.Close())
	t.Cleanup(func() { repo.Close() })

	ext := &fakeExtractor{available: true, candidates: []analysis.TodoCandidate{{Title: "a"}}}
	orch := NewOrchestrator(ext, repo, WithLogger(logging.Nop()))

	out := orch.Extract(context.Background(), "dinner on friday")
	assert.Equal(t, StatusStorageFailed, out.Status)
	assert.True(t, apperrors.Is(out.Err, apperrors.ErrDatabase))
	assert.Zero(t, ext.calls(), "text service is not called without the open todos")

	items, out, err := orch.ExtractAndStore(context.Background(), "dinner on friday")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDatabase))
	assert.Equal(t, StatusStorageFailed, out.Status)
	assert.Nil(t, items)
}

func TestExtractAsync(t *testing.T) {
	f := newFixture(t)
	f.ext.candidates = []analysis.TodoCandidate{{Title: "a"}}

	ch := f.orch.ExtractAsync(context.Background(), "a")
	out, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StatusOK, out.Status)
	assert.Len(t, out.Candidates, 1)

	_, ok = <-ch
	assert.False(t, ok)
}
