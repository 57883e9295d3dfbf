// Package logging tests for structured JSON logging.
package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), "line %q", sc.Text())
		entries = append(entries, m)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLogger_levelsAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)

	l.Debug("hidden")
	l.Info("todo committed", map[string]interface{}{"todo_id": "abc"})
	l.Error("summary failed", errors.New("timeout"), map[string]interface{}{"date": "2024-01-01"}, map[string]interface{}{"mode": "fresh"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "todo committed", entries[0]["message"])
	assert.Equal(t, "abc", entries[0]["todo_id"])
	assert.NotEmpty(t, entries[0]["timestamp"])

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "timeout", entries[1]["error"])
	assert.Equal(t, "2024-01-01", entries[1]["date"])
	assert.Equal(t, "fresh", entries[1]["mode"])
}

func TestLogger_namedAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelDebug).Named("todo").With(map[string]interface{}{"run": 1})

	l.Warn("grace period rejected")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "todo", entries[0]["logger"])
	assert.EqualValues(t, 1, entries[0]["run"])
}

func TestLogger_fileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragmind.log")
	l := New(Options{Level: LevelInfo, Quiet: true, File: path})

	l.Info("written to file")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := Get()
	t.Cleanup(func() { SetGlobal(prev) })

	SetGlobal(NewWriter(&buf, LevelInfo))
	Info("global entry")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "global entry", entries[0]["message"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", errors.New("x"))
	assert.NotNil(t, l.Zap())
}
