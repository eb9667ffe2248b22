package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.ClassifyModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.GenerateModel)
	assert.Equal(t, int64(4000), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "https://api.voyageai.com/v1", cfg.Voyage.BaseURL)
	assert.Equal(t, "voyage-3.5-lite", cfg.Voyage.Model)
	assert.Equal(t, 0.3, cfg.Cluster.Eps)
	assert.Equal(t, 2, cfg.Cluster.MinPoints)
	assert.Equal(t, 1, cfg.Classify.Workers)
	assert.Equal(t, 2.0, cfg.Classify.RatePerSec)
	assert.Equal(t, 150, cfg.Codebook.SampleSize)
	assert.Equal(t, 50, cfg.Columns.MinUnique)
	assert.Equal(t, "survey-coder.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SURVEY_ANTHROPIC_KEY", "env-anthropic-key")
	t.Setenv("SURVEY_VOYAGE_KEY", "env-voyage-key")
	t.Setenv("SURVEY_CLASSIFY_WORKERS", "8")
	t.Setenv("SURVEY_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-anthropic-key", cfg.Anthropic.Key)
	assert.Equal(t, "env-voyage-key", cfg.Voyage.Key)
	assert.Equal(t, 8, cfg.Classify.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "console"}))
}
