package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/store"
	"github.com/sells-group/talent-cli/internal/validate"
	"github.com/sells-group/talent-cli/pkg/serp"
)

type fakeJobSearch struct {
	pages   []*serp.JobsResponse
	calls   int
	lastQ   string
	lastLoc string
	err     error
}

func (f *fakeJobSearch) Search(ctx context.Context, query, location string, opts ...serp.SearchOption) (*serp.SearchResponse, error) {
	return nil, nil
}

func (f *fakeJobSearch) SearchJobs(ctx context.Context, query, location string, opts ...serp.SearchOption) (*serp.JobsResponse, error) {
	f.lastQ, f.lastLoc = query, location
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return &serp.JobsResponse{}, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func newIngestor(t *testing.T, search *fakeJobSearch) (*Ingestor, store.Store) {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	v := validate.New(config.ValidateConfig{
		RegionSuffixes:   []string{", nc", ", sc"},
		StaffingAgencies: []string{"teksystems"},
		TitleKeywords:    []string{"engineer", "analyst", "manager"},
		DefaultTitle:     "Data Engineer",
	})
	ing := New(search, s, v, nil, config.SearchConfig{
		MaxPages:     3,
		JobsLocation: "Charlotte, North Carolina",
	})
	return ing, s
}

func listing(id, company, title, location string) serp.JobResult {
	return serp.JobResult{
		Title:       title,
		CompanyName: company,
		Location:    location,
		Description: "Design and build data pipelines for the analytics team.",
		ShareLink:   "https://jobs.example/" + id,
		JobID:       id,
		DetectedExtensions: serp.DetectedExtensions{
			PostedAt: "3 days ago",
		},
	}
}

func TestRun_PersistsValidListings(t *testing.T) {
	search := &fakeJobSearch{pages: []*serp.JobsResponse{
		{JobsResults: []serp.JobResult{
			listing("ext-1", "Acme Corp", "Senior Data Engineer", "Charlotte, NC"),
			listing("ext-2", "Zenith Partners", "Data Analyst", "Columbia, SC"),
		}},
	}}
	ing, s := newIngestor(t, search)

	stats, err := ing.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Persisted)
	assert.Zero(t, stats.Rejected)
	assert.Equal(t, "data engineer", search.lastQ)
	assert.Equal(t, "Charlotte, North Carolina", search.lastLoc)

	rec, err := s.GetJobByExternalID(context.Background(), "ext-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Senior Data Engineer", rec.Title)
	assert.Equal(t, model.CompanyID("Acme Corp"), rec.CompanyID)
	assert.Equal(t, "Data Engineering", rec.Division)
	assert.InDelta(t, 0.9, rec.Confidence, 0.001)
}

func TestRun_RejectsInvalidListings(t *testing.T) {
	search := &fakeJobSearch{pages: []*serp.JobsResponse{
		{JobsResults: []serp.JobResult{
			listing("ext-1", "Acme Corp", "Data Engineer", "Remote"),
			listing("ext-2", "teksystems inc", "Data Engineer", "Charlotte, NC"),
		}},
	}}
	ing, _ := newIngestor(t, search)

	stats, err := ing.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Rejected)
	assert.Zero(t, stats.Persisted)
}

func TestRun_SkipsDuplicates(t *testing.T) {
	page := &serp.JobsResponse{JobsResults: []serp.JobResult{
		listing("ext-1", "Acme Corp", "Data Engineer", "Charlotte, NC"),
	}}
	search := &fakeJobSearch{pages: []*serp.JobsResponse{page}}
	ing, _ := newIngestor(t, search)

	_, err := ing.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)

	search.calls = 0
	stats, err := ing.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Zero(t, stats.Persisted)
}

func TestRun_FollowsPageTokens(t *testing.T) {
	search := &fakeJobSearch{pages: []*serp.JobsResponse{
		{
			JobsResults:   []serp.JobResult{listing("ext-1", "Acme Corp", "Data Engineer", "Charlotte, NC")},
			NextPageToken: "tok-2",
		},
		{
			JobsResults: []serp.JobResult{listing("ext-2", "Zenith Partners", "Data Analyst", "Raleigh, NC")},
		},
	}}
	ing, _ := newIngestor(t, search)

	stats, err := ing.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	assert.Equal(t, 2, search.calls)
	assert.Equal(t, 2, stats.Persisted)
}

func TestRun_NoQueries(t *testing.T) {
	ing, _ := newIngestor(t, &fakeJobSearch{})
	_, err := ing.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRun_SearchErrorDoesNotAbortOtherQueries(t *testing.T) {
	search := &fakeJobSearch{err: assert.AnError}
	ing, _ := newIngestor(t, search)

	stats, err := ing.Run(context.Background(), []string{"data engineer", "data analyst"})
	require.NoError(t, err)
	assert.Zero(t, stats.Persisted)
}

func TestParsePostedAt(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"3 days ago", now.AddDate(0, 0, -3)},
		{"5 hours ago", now.Add(-5 * time.Hour)},
		{"2 weeks ago", now.AddDate(0, 0, -14)},
		{"30+ days ago", now.AddDate(0, 0, -30)},
		{"just posted", now},
		{"Today", now},
		{"yesterday", now.AddDate(0, 0, -1)},
		{"", now},
		{"garbage", now},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePostedAt(tt.raw, now))
		})
	}
}

func TestInferDivision_TitleBeatsDescription(t *testing.T) {
	ing, _ := newIngestor(t, &fakeJobSearch{})

	div, conf, reason := ing.inferDivision(model.RawPosting{
		Title:       "Machine Learning Engineer",
		Description: "Work with ETL pipelines.",
	})
	assert.Equal(t, "Data Science", div)
	assert.InDelta(t, 0.85, conf, 0.001)
	assert.Contains(t, reason, "machine learning")
}

func TestInferDivision_NoMatch(t *testing.T) {
	ing, _ := newIngestor(t, &fakeJobSearch{})

	div, conf, reason := ing.inferDivision(model.RawPosting{Title: "Groundskeeper", Description: "Mow lawns."})
	assert.Empty(t, div)
	assert.Zero(t, conf)
	assert.Empty(t, reason)
}
