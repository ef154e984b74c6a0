package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeeds(t *testing.T) {
	path := writeSeedFile(t, `
queries:
  - data engineer
  - data analyst
division_rules:
  - division: Data Engineering
    confidence: 0.95
    keywords:
      - spark
      - airflow
`)

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"data engineer", "data analyst"}, seeds.Queries)
	require.Len(t, seeds.DivisionRules, 1)
	assert.Equal(t, "Data Engineering", seeds.DivisionRules[0].Division)
	assert.InDelta(t, 0.95, seeds.DivisionRules[0].Confidence, 0.001)
}

func TestLoadSeeds_NoQueries(t *testing.T) {
	path := writeSeedFile(t, "queries: []\n")
	_, err := LoadSeeds(path)
	assert.Error(t, err)
}

func TestLoadSeeds_MissingFile(t *testing.T) {
	_, err := LoadSeeds(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSeeds_MalformedYAML(t *testing.T) {
	path := writeSeedFile(t, "queries: [unclosed\n")
	_, err := LoadSeeds(path)
	assert.Error(t, err)
}
