package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://serpapi.com", cfg.Search.BaseURL)
	assert.Equal(t, 15, cfg.Search.TimeoutSecs)
	assert.Equal(t, 3, cfg.Search.MaxPages)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, []string{", nc", ", sc"}, cfg.Validate.RegionSuffixes)
	assert.Equal(t, "Data Engineer", cfg.Validate.DefaultTitle)
	assert.Contains(t, cfg.Validate.TitleKeywords, "engineer")
	assert.Contains(t, cfg.Hierarchy.RelevanceTokens, "director")
	assert.Contains(t, cfg.Hierarchy.Pronouns, "they")
	assert.Contains(t, cfg.Hierarchy.BannedNameWords, "unknown")
	assert.Equal(t, 1500, cfg.Hierarchy.SnippetCharLimit)
	assert.Equal(t, 3, cfg.Hierarchy.MaxItems)
	assert.Equal(t, 24, cfg.Enrich.FreshnessHours)
	assert.Equal(t, 14, cfg.Enrich.LookbackDays)
	assert.Equal(t, 1, cfg.Enrich.MaxConcurrent)
	assert.Equal(t, 0, cfg.Cache.TTLHours)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/talent
log:
  level: debug
  format: console
validate:
  region_suffixes: [", ga"]
  default_title: "Platform Engineer"
enrich:
  freshness_hours: 72
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/talent", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{", ga"}, cfg.Validate.RegionSuffixes)
	assert.Equal(t, "Platform Engineer", cfg.Validate.DefaultTitle)
	assert.Equal(t, 72, cfg.Enrich.FreshnessHours)
	// Untouched keys keep their defaults.
	assert.Equal(t, 14, cfg.Enrich.LookbackDays)
	assert.Equal(t, "https://serpapi.com", cfg.Search.BaseURL)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
