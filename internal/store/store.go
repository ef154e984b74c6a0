package store

import (
	"context"
	"time"

	"github.com/sells-group/talent-cli/internal/model"
)

// Store defines the persistence interface for jobs, company profiles, and
// the enrichment cache.
type Store interface {
	// Jobs
	AddJob(ctx context.Context, record model.JobRecord) error
	GetJobByExternalID(ctx context.Context, externalID string) (*model.JobRecord, error)
	ListJobsSince(ctx context.Context, since time.Time) ([]model.JobRecord, error)

	// Company profiles
	GetCompany(ctx context.Context, companyID string) (*model.CompanyProfile, error)
	AddCompany(ctx context.Context, profile model.CompanyProfile) error
	UpdateCompany(ctx context.Context, profile model.CompanyProfile) error
	ListCompaniesUpdatedSince(ctx context.Context, since time.Time) ([]model.CompanyProfile, error)

	// Enrichment cache. GetCacheEntry returns nil payload on miss or expiry.
	// PutCacheEntry replaces any existing entry for the same (operation, key).
	// A zero ttl stores the entry without expiry.
	GetCacheEntry(ctx context.Context, operation, keyHash string) ([]byte, error)
	PutCacheEntry(ctx context.Context, operation, keyHash string, payload []byte, ttl time.Duration) error
	DeleteExpiredCacheEntries(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
