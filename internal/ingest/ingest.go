// Package ingest pulls job listings from the search provider, validates and
// normalizes them, and persists new records.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/store"
	"github.com/sells-group/talent-cli/internal/validate"
	"github.com/sells-group/talent-cli/pkg/serp"
)

// Stats summarizes one ingest run.
type Stats struct {
	Fetched    int
	Rejected   int
	Duplicates int
	Persisted  int
}

// Ingestor fetches, filters, and stores job postings.
type Ingestor struct {
	search    serp.Client
	store     store.Store
	validator *validate.Validator
	rules     []DivisionRule
	cfg       config.SearchConfig
}

// New wires an Ingestor. A nil rules slice falls back to DefaultDivisionRules.
func New(search serp.Client, st store.Store, validator *validate.Validator, rules []DivisionRule, cfg config.SearchConfig) *Ingestor {
	if rules == nil {
		rules = DefaultDivisionRules
	}
	return &Ingestor{
		search:    search,
		store:     st,
		validator: validator,
		rules:     rules,
		cfg:       cfg,
	}
}

// Run executes one ingest pass over the given seed queries. Per-query
// failures are logged and the pass continues; the returned error covers only
// a completely failed run.
func (i *Ingestor) Run(ctx context.Context, queries []string) (Stats, error) {
	if len(queries) == 0 {
		return Stats{}, eris.New("ingest: no seed queries")
	}

	var stats Stats
	for _, query := range queries {
		if err := i.runQuery(ctx, query, &stats); err != nil {
			zap.L().Error("query ingest failed",
				zap.String("query", query),
				zap.Error(err))
		}
	}

	zap.L().Info("ingest pass complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("rejected", stats.Rejected),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("persisted", stats.Persisted))
	return stats, nil
}

func (i *Ingestor) runQuery(ctx context.Context, query string, stats *Stats) error {
	pageToken := ""
	maxPages := i.cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	for page := 0; page < maxPages; page++ {
		var opts []serp.SearchOption
		if pageToken != "" {
			opts = append(opts, serp.WithPageToken(pageToken))
		}

		resp, err := i.search.SearchJobs(ctx, query, i.cfg.JobsLocation, opts...)
		if err != nil {
			return eris.Wrapf(err, "ingest: search jobs page %d", page)
		}

		for _, res := range resp.JobsResults {
			stats.Fetched++
			i.processResult(ctx, res, stats)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return nil
}

func (i *Ingestor) processResult(ctx context.Context, res serp.JobResult, stats *Stats) {
	posting := toPosting(res)

	if !i.validator.Validate(posting) {
		stats.Rejected++
		return
	}

	existing, err := i.store.GetJobByExternalID(ctx, posting.ExternalID)
	if err != nil {
		zap.L().Error("duplicate check failed",
			zap.String("external_id", posting.ExternalID),
			zap.Error(err))
		return
	}
	if existing != nil {
		stats.Duplicates++
		return
	}

	now := time.Now().UTC()
	division, confidence, reasoning := i.inferDivision(posting)
	record := model.JobRecord{
		JobID:       model.JobID(posting.ExternalID),
		CompanyID:   model.CompanyID(posting.CompanyName),
		CompanyName: posting.CompanyName,
		Title:       i.validator.NormalizeTitle(posting),
		Location:    posting.Location,
		Description: posting.Description,
		Division:    division,
		Confidence:  confidence,
		Reasoning:   reasoning,
		Link:        posting.Link,
		PostedAt:    parsePostedAt(posting.PostedAt, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := i.store.AddJob(ctx, record); err != nil {
		zap.L().Error("persist job failed",
			zap.String("job_id", record.JobID),
			zap.Error(err))
		return
	}

	stats.Persisted++
	zap.L().Debug("job persisted",
		zap.String("job_id", record.JobID),
		zap.String("company", record.CompanyName),
		zap.String("title", record.Title))
}

func toPosting(res serp.JobResult) model.RawPosting {
	return model.RawPosting{
		Title:       res.Title,
		CompanyName: res.CompanyName,
		Location:    res.Location,
		Description: res.Description,
		Link:        res.ShareLink,
		ExternalID:  res.JobID,
		PostedAt:    res.DetectedExtensions.PostedAt,
	}
}

// inferDivision matches the first rule whose keyword appears in the title,
// then falls back to description matches at reduced confidence.
func (i *Ingestor) inferDivision(posting model.RawPosting) (division string, confidence float64, reasoning string) {
	title := strings.ToLower(posting.Title)
	desc := strings.ToLower(posting.Description)

	for _, rule := range i.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(title, kw) {
				return rule.Division, rule.Confidence,
					fmt.Sprintf("title matched %q", kw)
			}
		}
	}
	for _, rule := range i.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Division, rule.Confidence * 0.5,
					fmt.Sprintf("description matched %q", kw)
			}
		}
	}
	return "", 0, ""
}

var relativeAge = regexp.MustCompile(`(?i)^(\d+)\+?\s+(hour|day|week|month)s?\s+ago$`)

// parsePostedAt turns the provider's relative age ("3 days ago") into an
// absolute timestamp. Unrecognized values fall back to now.
func parsePostedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	switch strings.ToLower(raw) {
	case "just posted", "today":
		return now
	case "yesterday":
		return now.AddDate(0, 0, -1)
	}

	m := relativeAge.FindStringSubmatch(raw)
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	switch strings.ToLower(m[2]) {
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	}
	return now
}
