package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "docqa", cfg.App.Name)
	assert.Equal(t, 30, cfg.Pipeline.MinChunkLen)
	assert.Equal(t, 500, cfg.Pipeline.SummaryWidth)
	assert.Equal(t, 30, cfg.Pipeline.SummaryMinTokens)
	assert.Equal(t, 150, cfg.Pipeline.SummaryMaxTokens)
	assert.Zero(t, cfg.Pipeline.MinAnswerScore)
	assert.False(t, cfg.Pipeline.DedupeSummaries)
	assert.Equal(t, 600, cfg.Pipeline.IndexTimeoutSeconds)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[app]
port = 9090

[pipeline]
min_chunk_len = 12
dedupe_summaries = true
min_answer_score = 0.4

[llm]
model = "chat-small"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 12, cfg.Pipeline.MinChunkLen)
	assert.True(t, cfg.Pipeline.DedupeSummaries)
	assert.InDelta(t, 0.4, cfg.Pipeline.MinAnswerScore, 1e-9)
	assert.Equal(t, "chat-small", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.Pipeline.SummaryWidth)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
app:
  host: 127.0.0.1
pipeline:
  summary_width: 200
log:
  format: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.App.Host)
	assert.Equal(t, 200, cfg.Pipeline.SummaryWidth)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr())
}

func TestLoadFile_InvalidFile(t *testing.T) {
	path := writeFile(t, "config.toml", "[app\nport = ")

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", "[llm]\nmodel = \"from-file\"\n")
	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("PIPELINE_DEDUPE_SUMMARIES", "true")
	t.Setenv("PIPELINE_MIN_ANSWER_SCORE", "0.25")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.True(t, cfg.Pipeline.DedupeSummaries)
	assert.InDelta(t, 0.25, cfg.Pipeline.MinAnswerScore, 1e-9)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.Password = "secret"

	assert.Equal(t,
		"root:secret@tcp(127.0.0.1:3306)/docqa?parseTime=true&loc=Local&charset=utf8mb4",
		cfg.MySQLDSN(),
	)
}
