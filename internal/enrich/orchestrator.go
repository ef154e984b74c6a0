// Package enrich drives the company profile refresh pass. It walks recent
// jobs, resolves company domains, extracts hierarchies, and upserts profiles.
package enrich

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/discovery"
	"github.com/sells-group/talent-cli/internal/hierarchy"
	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/store"
)

// Orchestrator runs enrichment over all companies with recent jobs.
type Orchestrator struct {
	store     store.Store
	resolver  *discovery.Resolver
	extractor *hierarchy.Extractor
	cfg       config.EnrichConfig
}

// New wires the orchestrator's collaborators.
func New(st store.Store, resolver *discovery.Resolver, extractor *hierarchy.Extractor, cfg config.EnrichConfig) *Orchestrator {
	return &Orchestrator{
		store:     st,
		resolver:  resolver,
		extractor: extractor,
		cfg:       cfg,
	}
}

// RefreshCompanyProfiles enriches every company that posted a job inside the
// lookback window, skipping companies whose profile is still fresh. One
// company failing never aborts the batch. Returns the number of companies
// whose profile was created or updated.
func (o *Orchestrator) RefreshCompanyProfiles(ctx context.Context, asOf time.Time) (int, error) {
	lookback := asOf.AddDate(0, 0, -o.cfg.LookbackDays)
	jobs, err := o.store.ListJobsSince(ctx, lookback)
	if err != nil {
		return 0, eris.Wrap(err, "enrich: list recent jobs")
	}

	companies := groupByCompany(jobs)
	zap.L().Info("starting refresh pass",
		zap.Int("jobs", len(jobs)),
		zap.Int("companies", len(companies)),
		zap.Time("lookback", lookback))

	limit := o.cfg.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	var persisted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range companies {
		job := job
		g.Go(func() error {
			status := o.refreshCompany(gctx, job, asOf)
			if status == model.ProfileStatusPersisted {
				persisted.Add(1)
			}
			// Per-company failures are already logged; never fail the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(persisted.Load()), eris.Wrap(err, "enrich: refresh pass")
	}
	return int(persisted.Load()), nil
}

// refreshCompany runs the full state machine for a single company and
// returns its terminal status.
func (o *Orchestrator) refreshCompany(ctx context.Context, job model.JobRecord, asOf time.Time) model.ProfileStatus {
	log := zap.L().With(
		zap.String("company", job.CompanyName),
		zap.String("company_id", job.CompanyID))

	existing, err := o.store.GetCompany(ctx, job.CompanyID)
	if err != nil {
		log.Error("load profile failed", zap.Error(err))
		return model.ProfileStatusFailed
	}

	freshness := time.Duration(o.cfg.FreshnessHours) * time.Hour
	if existing != nil && asOf.Sub(existing.UpdatedAt) < freshness {
		log.Debug("profile still fresh", zap.Time("updated_at", existing.UpdatedAt))
		return model.ProfileStatusSkippedFresh
	}

	log.Debug("discovering domain", zap.String("status", string(model.ProfileStatusDiscovering)))
	domain, link, err := o.resolver.ResolveDomain(ctx, job.CompanyName, job.Location)
	if err != nil {
		// Discovery degrades gracefully; continue without a domain.
		log.Warn("domain resolution failed", zap.Error(err))
		domain, link = "", ""
	}
	if domain == "" && existing != nil {
		domain, link = existing.Domain, existing.Link
	}

	log.Debug("searching hierarchy",
		zap.String("status", string(model.ProfileStatusSearching)),
		zap.String("domain", domain))
	result, err := o.extractor.Extract(ctx, job, domain)
	if err != nil {
		log.Error("hierarchy extraction failed", zap.Error(err))
		return model.ProfileStatusFailed
	}
	if result.IsEmpty() {
		log.Info("no relevant hierarchy found")
		return model.ProfileStatusSkippedNoHits
	}

	profile := mergeProfile(existing, job, domain, link, result, asOf)
	if existing == nil {
		err = o.store.AddCompany(ctx, profile)
	} else {
		err = o.store.UpdateCompany(ctx, profile)
	}
	if err != nil {
		log.Error("persist profile failed", zap.Error(err))
		return model.ProfileStatusFailed
	}

	log.Info("profile persisted", zap.Int("people", len(profile.Hierarchy.Items)))
	return model.ProfileStatusPersisted
}

// mergeProfile unions a new hierarchy into the existing profile. Names are
// deduplicated case-insensitively with existing entries winning; a newly
// resolved domain and link are adopted.
func mergeProfile(existing *model.CompanyProfile, job model.JobRecord, domain, link string, result *model.HierarchyResult, asOf time.Time) model.CompanyProfile {
	profile := model.CompanyProfile{
		CompanyID:   job.CompanyID,
		DisplayName: cases.Title(language.English).String(job.CompanyName),
		Domain:      domain,
		Link:        link,
		CreatedAt:   asOf,
		UpdatedAt:   asOf,
	}
	if existing != nil {
		profile.DisplayName = existing.DisplayName
		profile.CreatedAt = existing.CreatedAt
		profile.Hierarchy = existing.Hierarchy
		if profile.Domain == "" {
			profile.Domain = existing.Domain
			profile.Link = existing.Link
		}
	}
	for _, item := range result.Items {
		if !profile.Hierarchy.ContainsName(item.Name) {
			profile.Hierarchy.Items = append(profile.Hierarchy.Items, item)
		}
	}
	return profile
}

// groupByCompany picks one representative job per company, preferring the
// most recently posted. Output order is deterministic by company id.
func groupByCompany(jobs []model.JobRecord) []model.JobRecord {
	byCompany := make(map[string]model.JobRecord)
	for _, job := range jobs {
		cur, ok := byCompany[job.CompanyID]
		if !ok || job.PostedAt.After(cur.PostedAt) {
			byCompany[job.CompanyID] = job
		}
	}
	out := make([]model.JobRecord, 0, len(byCompany))
	for _, job := range byCompany {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out
}
