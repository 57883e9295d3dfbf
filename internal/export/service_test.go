package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/models"
)

const day = "2024-03-05"

func at(d string, hour, min int) time.Time {
	t, _ := models.ParseDay(d)
	return t.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func setupTestService(t *testing.T) (*db.Repository, *ExportService, string) {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	repo := db.NewRepository(conn.DB)
	t.Cleanup(func() {
		repo.Close()
		conn.Close()
	})
	dir := t.TempDir()
	svc := NewExportService(repo, repo, repo, dir, WithClock(func() time.Time { return at(day, 21, 0) }))
	return repo, svc, dir
}

func seed(t *testing.T, repo *db.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateFragment(ctx, models.NewFragment("line one\nline two", day, at(day, 12, 30))))
	require.NoError(t, repo.CreateFragment(ctx, models.NewFragment("woke up", day, at(day, 7, 5))))
	require.NoError(t, repo.CreateFragment(ctx, models.NewFragment("other day", "2024-03-04", at("2024-03-04", 9, 0))))
	require.NoError(t, repo.UpsertSummary(ctx, &models.DiarySummary{Date: day, Summary: "A good day.", EntryCount: 2}))

	dentist, rent, gym, later := at(day, 15, 0), at(day, 0, 0), at(day, 18, 0), at("2024-03-06", 9, 0)
	created := at(day, 6, 0)
	done := models.NewTodo("gym", &gym, created)
	require.NoError(t, repo.CreateTodos(ctx, []*models.TodoItem{
		models.NewTodo("dentist", &dentist, created),
		models.NewTodo("pay rent", &rent, created),
		done,
		models.NewTodo("tomorrow", &later, created),
		models.NewTodo("someday", nil, created),
	}))
	_, err := repo.SetTodoCompletion(ctx, string(done.ID), true, at(day, 19, 0))
	require.NoError(t, err)
}

func TestExport_markdown(t *testing.T) {
	repo, svc, dir := setupTestService(t)
	seed(t, repo)

	res, err := svc.Export(context.Background(), &ExportConfig{Date: day})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fragmind_2024-03-05.md"), res.FilePath)
	assert.Equal(t, 2, res.FragmentCount)
	assert.Equal(t, 3, res.TodoCount)
	assert.True(t, res.HasSummary)
	assert.Len(t, res.Checksum, 64)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), res.SizeBytes)

	want := "# 2024-03-05 Tuesday\n" +
		"\n## Summary\n\nA good day.\n" +
		"\n## Notes\n\n" +
		"- **07:05** woke up\n" +
		"- **12:30** line one\n  line two\n" +
		"\n## Todos\n\n" +
		"- [ ] pay rent\n" +
		"- [ ] dentist (15:00)\n" +
		"- [x] gym (18:00)\n"
	assert.Equal(t, want, string(data))
}

func TestExport_html(t *testing.T) {
	ctx := context.Background()
	repo, svc, dir := setupTestService(t)
	seed(t, repo)
	require.NoError(t, repo.CreateFragment(ctx, models.NewFragment("<script>alert(1)</script>", day, at(day, 13, 0))))

	res, err := svc.Export(ctx, &ExportConfig{Date: day, Format: FormatHTML})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fragmind_2024-03-05.html"), res.FilePath)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	page := string(data)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>2024-03-05 Tuesday</title>")
	assert.NotContains(t, page, "<script>")

	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-05 Tuesday"}, textsOf(doc, "h1"))
	assert.Equal(t, []string{"Summary", "Notes", "Todos"}, textsOf(doc, "h2"))
	assert.Len(t, textsOf(doc, "li"), 6)
	assert.Len(t, textsOf(doc, "input"), 3)
}

// textsOf returns the text content of every element named tag.
func textsOf(n *html.Node, tag string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, strings.TrimSpace(nodeText(n)))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func TestExport_defaultsToTodayAndCustomPath(t *testing.T) {
	_, svc, _ := setupTestService(t)
	out := filepath.Join(t.TempDir(), "nested", "journal.md")

	res, err := svc.Export(context.Background(), &ExportConfig{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, res.FilePath)
	assert.False(t, res.HasSummary)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# 2024-03-05 Tuesday\n\nNothing was recorded on this day.\n", string(data))
}

func TestExport_rejectsBadInput(t *testing.T) {
	_, svc, _ := setupTestService(t)

	_, err := svc.Export(context.Background(), &ExportConfig{Date: "05/03/2024"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Export(context.Background(), &ExportConfig{Date: day, Format: "pdf"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}
