package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/talent-cli/internal/cache"
	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/store"
	"github.com/sells-group/talent-cli/pkg/anthropic"
	"github.com/sells-group/talent-cli/pkg/serp"
)

type fakeSearch struct {
	lastQuery string
	resp      *serp.SearchResponse
	err       error
}

func (f *fakeSearch) Search(ctx context.Context, query, location string, opts ...serp.SearchOption) (*serp.SearchResponse, error) {
	f.lastQuery = query
	return f.resp, f.err
}

func (f *fakeSearch) SearchJobs(ctx context.Context, query, location string, opts ...serp.SearchOption) (*serp.JobsResponse, error) {
	return nil, nil
}

type fakeAI struct {
	calls int
	text  string
	err   error
}

func (f *fakeAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func newExtractor(t *testing.T, search *fakeSearch, ai *fakeAI) *Extractor {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	return NewExtractor(search, ai, cache.New(s, 0), testHierarchyConfig(), config.AnthropicConfig{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 1024,
	})
}

func testJob() model.JobRecord {
	return model.JobRecord{
		JobID:       "abc123",
		CompanyID:   model.CompanyID("Acme Corp"),
		CompanyName: "Acme Corp",
		Title:       "Data Engineer",
		Division:    "Analytics",
		Location:    "Charlotte, NC",
		Description: "Build pipelines on the analytics platform.",
	}
}

func teamSearchResponse() *serp.SearchResponse {
	return &serp.SearchResponse{OrganicResults: []serp.OrganicResult{
		{Snippet: "Maria Alvarez leads the data engineering team as Engineering Manager."},
		{Snippet: "Sam Okafor is Director of Analytics at Acme."},
	}}
}

func TestExtract_FullRoundTrip(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{text: "```json\n{\"hierarchy\": [{\"name\": \"Maria Alvarez\", \"title\": \"Engineering Manager\"}, {\"name\": \"Sam Okafor\", \"title\": \"Director of Analytics\"}]}\n```"}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "acmecorp.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Maria Alvarez", got.Items[0].Name)
	assert.Contains(t, search.lastQuery, "Acme Corp")
	assert.Contains(t, search.lastQuery, "Analytics")
	assert.Contains(t, search.lastQuery, "site:acmecorp.com")
}

func TestExtract_IrrelevantSnippetsSkipAI(t *testing.T) {
	search := &fakeSearch{resp: &serp.SearchResponse{OrganicResults: []serp.OrganicResult{
		{Snippet: "Quarterly earnings report for shareholders."},
	}}}
	ai := &fakeAI{text: `{"hierarchy": []}`}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, ai.calls)
}

func TestExtract_SecondCallHitsCache(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{text: `{"hierarchy": [{"name": "Maria Alvarez", "title": "Engineering Manager"}]}`}
	e := newExtractor(t, search, ai)

	first, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ai.calls)
}

func TestExtract_MalformedPayloadIsNoResult(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{text: "here is the hierarchy you asked for"}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtract_EmptyModelTextIsNoResult(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{text: ""}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtract_AIErrorIsNoResult(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{err: assert.AnError}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtract_SearchErrorPropagates(t *testing.T) {
	search := &fakeSearch{err: assert.AnError}
	e := newExtractor(t, search, &fakeAI{})

	_, err := e.Extract(context.Background(), testJob(), "")
	assert.Error(t, err)
}

func TestExtract_SanitizedEmptyIsNoResult(t *testing.T) {
	search := &fakeSearch{resp: teamSearchResponse()}
	ai := &fakeAI{text: `{"hierarchy": [{"name": "John Doe", "title": "Manager"}]}`}
	e := newExtractor(t, search, ai)

	got, err := e.Extract(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}
