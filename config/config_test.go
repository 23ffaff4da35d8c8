package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/config"
	"github.com/sevigo/campusrag/documentloaders"
)

const sample = `
database:
  path: data/chunks.db
parser:
  row_threshold: 10
  chunk_size: 800
documents:
  - path: wat_data/organizacja_zajec_w_roku_akademickim.pdf
    parser: calendar
  - path: wat_data/informator.pdf
timetable:
  groups: [WCY24IX1S4]
llm:
  provider: ollama
  model: gemma3
retrieval:
  top_k: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campusrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "data/chunks.db", cfg.Database.Path)
	assert.Equal(t, 10.0, cfg.Parser.RowThreshold)
	assert.Equal(t, 800, cfg.Parser.ChunkSize)
	assert.Equal(t, 140.0, cfg.Parser.CalendarColumnSplit, "unset parser fields keep defaults")
	require.Len(t, cfg.Documents, 2)
	assert.Equal(t, "calendar", cfg.Documents[0].Parser)
	assert.Empty(t, cfg.Documents[1].Parser)
	assert.Equal(t, []string{"WCY24IX1S4"}, cfg.Timetable.Groups)
	assert.Equal(t, "gemma3", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 10, cfg.Retrieval.MaxHistory)
	assert.Equal(t, "university_docs", cfg.Qdrant.Collection)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAMPUSRAG_DB_PATH", "/tmp/env.db")
	t.Setenv("OLLAMA_URL", "http://ollama:11434")
	t.Setenv("QDRANT_HOST", "qdrant")
	t.Setenv("PORT", "9000")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.ServerURL)
	assert.Equal(t, "qdrant", cfg.Qdrant.Host)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "llm: [broken"))
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.Retrieval.TopK = 0
	cfg.Retrieval.ScoreThreshold = 1.5
	cfg.Documents = append(cfg.Documents, documentloaders.Job{Path: "x.pdf", Parser: "ocr"})
	err = cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "top_k")
	assert.Contains(t, err.Error(), "score_threshold")
	assert.Contains(t, err.Error(), `"ocr"`)

	assert.NoError(t, config.DefaultConfig().Validate())
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "campusrag.example.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Documents, 3)
	assert.Equal(t, "calendar", cfg.Documents[0].Parser)
	assert.Equal(t, 5, cfg.Parser.RowBatchSize)
	assert.Equal(t, []string{"WCY24IV1N2"}, cfg.Timetable.Groups)
}
