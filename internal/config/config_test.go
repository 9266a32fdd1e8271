package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/foundation_scout.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "page_store", cfg.Paths.PageStoreDir)

	assert.Equal(t, 10, cfg.SerpAPI.ResultsPerQuery)
	assert.Equal(t, 25, cfg.Fetch.MaxURLsPerFoundation)
	assert.Equal(t, 4, cfg.Select.MaxPDFsPerFoundation)
	assert.Equal(t, 4, cfg.Select.MaxHTMLPerFoundation)
	assert.Equal(t, 18000, cfg.Extract.MaxChars)
	assert.Equal(t, 25, cfg.Extract.BatchSize)
	assert.Equal(t, 25, cfg.Classify.SaveEvery)
	assert.Equal(t, 5, cfg.Anthropic.RetryAttempts)
	assert.Equal(t, 1000, cfg.Anthropic.RetryMinWaitMS)
	assert.Equal(t, 20000, cfg.Anthropic.RetryMaxWaitMS)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SCOUT_STORE_DRIVER", "postgres")
	t.Setenv("SCOUT_EXTRACT_MAX_CHARS", "9000")
	t.Setenv("SCOUT_SERPAPI_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9000, cfg.Extract.MaxChars)
	assert.Equal(t, "env-key", cfg.SerpAPI.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}
