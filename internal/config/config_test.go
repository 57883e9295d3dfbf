package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kimhsiao/fragmind/internal/errors"
)

// isolate points every lookup at an empty temp dir and clears credentials
// that may exist on the host.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FRAGMIND_DATA_DIR", dir)
	t.Setenv("FRAGMIND_CONFIG_PATH", "")
	t.Setenv("FRAGMIND_AI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	return dir
}

func TestLoad_defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "deepseek", cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Empty(t, cfg.Summary.StylePrompt)
}

func TestLoad_expandsHome(t *testing.T) {
	isolate(t)
	home, err := homedir.Dir()
	require.NoError(t, err)

	cfg, err := Load(LoadOptions{Overrides: map[string]interface{}{
		"data_dir": "~/notes",
		"log.file": "~/notes/fragmind.log",
	}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "notes", "fragmind.log"), cfg.Log.File)
}

func TestLoad_environment(t *testing.T) {
	isolate(t)
	t.Setenv("FRAGMIND_LOG_LEVEL", "debug")
	t.Setenv("FRAGMIND_AI_TIMEOUT", "45s")
	t.Setenv("FRAGMIND_SUMMARY_STYLE_PROMPT", "write briefly")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "write briefly", cfg.Summary.StylePrompt)
}

func TestLoad_providerKeyVariable(t *testing.T) {
	isolate(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-deepseek")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sk-deepseek", cfg.AI.APIKey)

	t.Setenv("FRAGMIND_AI_API_KEY", "sk-own")
	cfg, err = Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sk-own", cfg.AI.APIKey)
}

func TestLoad_file(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  format: json
ai:
  provider: ollama
  model: llama3
  max_tokens: 1024
`), 0o600))

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
}

func TestLoad_fileInDataDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragmind.yaml"), []byte("log:\n  level: warn\n"), 0o600))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_missingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestLoad_rejectsInvalidValues(t *testing.T) {
	isolate(t)
	cases := map[string]map[string]interface{}{
		"provider":   {"ai.provider": "gemini"},
		"level":      {"log.level": "verbose"},
		"format":     {"log.format": "xml"},
		"max tokens": {"ai.max_tokens": 64000},
		"timeout":    {"ai.timeout": "0s"},
		"endpoint":   {"ai.api_endpoint": "not a url"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(LoadOptions{Overrides: overrides})
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "got %v", err)
		})
	}
}
