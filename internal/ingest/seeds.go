package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DivisionRule maps listing keywords to an inferred division and the
// confidence assigned when a title matches.
type DivisionRule struct {
	Division   string   `yaml:"division"`
	Keywords   []string `yaml:"keywords"`
	Confidence float64  `yaml:"confidence"`
}

// DefaultDivisionRules covers the data-practice taxonomy used when no seed
// file overrides it. Keywords are matched lowercase.
var DefaultDivisionRules = []DivisionRule{
	{Division: "Data Engineering", Confidence: 0.9, Keywords: []string{"data engineer", "etl", "data pipeline", "databricks", "snowflake"}},
	{Division: "Analytics", Confidence: 0.85, Keywords: []string{"data analyst", "analytics", "business intelligence", "power bi", "tableau"}},
	{Division: "Data Science", Confidence: 0.85, Keywords: []string{"data scientist", "machine learning", "ml engineer"}},
	{Division: "Data Platform", Confidence: 0.75, Keywords: []string{"data architect", "data platform", "database administrator", "dba"}},
}

// SeedFile is the YAML shape for ingest seeds: search queries plus optional
// division-rule overrides.
type SeedFile struct {
	Queries       []string       `yaml:"queries"`
	DivisionRules []DivisionRule `yaml:"division_rules"`
}

// LoadSeeds reads a seed file from disk.
func LoadSeeds(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read seed file %s", path)
	}

	var seeds SeedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse seed file %s", path)
	}
	if len(seeds.Queries) == 0 {
		return nil, eris.Errorf("ingest: seed file %s has no queries", path)
	}
	return &seeds, nil
}
