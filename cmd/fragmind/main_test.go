package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/fragmind/internal/todo"
)

var idPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}`)

type harness struct {
	t       *testing.T
	dataDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("FRAGMIND_AI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("FRAGMIND_CONFIG_PATH", "")
	t.Setenv("FRAGMIND_MACHINE_ID", "test-machine")
	color.NoColor = true
	return &harness{t: t, dataDir: t.TempDir()}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	ro := &rootOptions{todoOptions: []todo.Option{todo.WithGracePeriod(20 * time.Millisecond)}}
	cmd := newRootCommandWith(ro)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--data-dir", h.dataDir, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestVersionDefault(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.Equal(t, Version, newRootCommand().Version)
}

func TestNoteAndSummaryFlow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("note", "add", "--date", "2024-03-05", "walked", "the", "dog")
	assert.Contains(t, out, "Saved note")
	h.mustRun("note", "add", "--date", "2024-03-05", "read a book")

	out = h.mustRun("note", "list", "--date", "2024-03-05")
	assert.Contains(t, out, "walked the dog")
	assert.Contains(t, out, "read a book")

	out = h.mustRun("summary", "generate", "--date", "2024-03-05")
	assert.Contains(t, out, "walked the dog\n\nread a book")
	assert.Contains(t, out, "AI is not configured")

	out = h.mustRun("summary", "show", "--date", "2024-03-05")
	assert.Contains(t, out, "No summary saved for 2024-03-05")

	out = h.mustRun("summary", "generate", "--date", "2024-03-05", "--save-fallback")
	assert.Contains(t, out, "Saved the notes as the summary")

	out = h.mustRun("summary", "show", "--date", "2024-03-05")
	assert.Contains(t, out, "2024-03-05 Tuesday")
	assert.Contains(t, out, "2 notes")

	out = h.mustRun("summary", "generate", "--date", "2024-03-06")
	assert.Contains(t, out, "Nothing to summarize yet.")
}

func TestNoteEditAndRemove(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("note", "add", "first draft")
	id := idPattern.FindString(out)
	require.NotEmpty(t, id, out)

	h.mustRun("note", "edit", id, "final", "text")
	out = h.mustRun("note", "recent")
	assert.Contains(t, out, "final text")
	assert.NotContains(t, out, "first draft")

	h.mustRun("note", "rm", id)
	_, err := h.run("note", "rm", id)
	assert.Error(t, err)

	_, err = h.run("note", "add", "   ")
	assert.Error(t, err)
}

func TestTodoLifecycleFlow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("todo", "add", "--due", "2030-01-02 09:30", "call", "the", "bank")
	id := idPattern.FindString(out)
	require.NotEmpty(t, id, out)
	h.mustRun("todo", "add", "water plants")

	out = h.mustRun("todo", "list")
	assert.Contains(t, out, "2030-01-02 Wednesday")
	assert.Contains(t, out, "09:30")
	assert.Contains(t, out, todo.UnscheduledLabel)

	out = h.mustRun("todo", "done", id)
	assert.Contains(t, out, `Completed "call the bank"`)

	out = h.mustRun("todo", "done", id)
	assert.Contains(t, out, "already completed")

	out = h.mustRun("todo", "restore", id)
	assert.Contains(t, out, "[ ] "+id)

	h.mustRun("todo", "rename", id, "call the bank about the loan")
	out = h.mustRun("todo", "due", id, "none")
	assert.NotContains(t, out, "due 2030")

	h.mustRun("todo", "rm", id)
	out = h.mustRun("todo", "list")
	assert.NotContains(t, out, "call the bank")

	out = h.mustRun("todo", "extract", "pay rent on friday")
	assert.Contains(t, out, "AI is not configured")
}

func TestConfigFlow(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("config", "set-key")
	assert.Error(t, err)

	out := h.mustRun("config", "set-key", "--provider", "ollama", "--model", "llama3", "--style", "keep it short")
	assert.Contains(t, out, "AI configured: ollama (llama3)")

	out = h.mustRun("config", "show")
	assert.Contains(t, out, "ollama")
	assert.Contains(t, out, "stored")
	assert.Contains(t, out, "keep it short")

	h.mustRun("config", "set-key", "--provider", "openai", "sk-secret")
	out = h.mustRun("config", "show")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "sk-secret")

	h.mustRun("config", "clear-key")
	out = h.mustRun("config", "show")
	assert.Contains(t, out, "deepseek")
	assert.Contains(t, out, "(not set)")
}

func TestExportFlow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("note", "add", "--date", "2024-03-05", "hello")

	out := h.mustRun("export", "--date", "2024-03-05", "--html")
	path := filepath.Join(h.dataDir, "exports", "fragmind_2024-03-05.html")
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	custom := filepath.Join(t.TempDir(), "day.md")
	h.mustRun("export", "--date", "2024-03-05", "-o", custom)
	assert.FileExists(t, custom)
}

func TestMetricsFlag(t *testing.T) {
	h := newHarness(t)
	h.mustRun("note", "add", "--date", "2024-03-05", "hello")
	out := h.mustRun("--metrics", "summary", "generate", "--date", "2024-03-05")
	assert.Contains(t, out, "fragmind_summary_generations_total")
}
