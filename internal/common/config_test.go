package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.70, cfg.LLM.ModelConfidence, 0.001)
	assert.InDelta(t, 0.80, cfg.Extraction.HighConfidence, 0.001)
	assert.Equal(t, "file", cfg.Checkpoint.Backend)
	assert.Equal(t, 25, cfg.Batch.SubBatchSize)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "pdftotext", cfg.TextSource.Pdftotext)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: gpt-4o
  model_confidence: 0.65
extraction:
  high_confidence: 0.85
batch:
  sub_batch_size: 10
  workers: 4
checkpoint:
  backend: sqlite
  path: run.db
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.65, cfg.LLM.ModelConfidence, 0.001)
	assert.InDelta(t, 0.85, cfg.Extraction.HighConfidence, 0.001)
	assert.Equal(t, 10, cfg.Batch.SubBatchSize)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Backend)
	assert.Equal(t, "run.db", cfg.Checkpoint.Path)
	// untouched keys keep their defaults
	assert.Equal(t, 2, cfg.LLM.MaxRetries)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TDHCA_LLM_API_KEY", "sk-test")
	t.Setenv("TDHCA_BATCH_WORKERS", "8")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Batch.Workers)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Extraction.HighConfidence = 1.5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LLM.ModelConfidence = -0.1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Batch.SubBatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Batch.SubBatchSize = 500
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Batch.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Checkpoint.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}
