package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/talent-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_job":         `SELECT job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at FROM jobs WHERE job_id = $1`,
	"get_company":     `SELECT company_id, display_name, domain, link, hierarchy, created_at, updated_at FROM company_profiles WHERE company_id = $1`,
	"get_cache_entry": `SELECT payload FROM enrichment_cache WHERE operation = $1 AND key_hash = $2 AND (expires_at IS NULL OR expires_at > now())`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id       TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL,
	company_name TEXT NOT NULL,
	title        TEXT NOT NULL,
	location     TEXT NOT NULL,
	description  TEXT NOT NULL,
	division     TEXT NOT NULL DEFAULT '',
	confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
	reasoning    TEXT NOT NULL DEFAULT '',
	link         TEXT NOT NULL DEFAULT '',
	posted_at    TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_profiles (
	company_id   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	link         TEXT NOT NULL DEFAULT '',
	hierarchy    JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_cache (
	operation  TEXT NOT NULL,
	key_hash   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ,
	PRIMARY KEY (operation, key_hash)
);

CREATE INDEX IF NOT EXISTS idx_jobs_company_id ON jobs(company_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_company_profiles_updated_at ON company_profiles(updated_at);
CREATE INDEX IF NOT EXISTS idx_enrichment_cache_expires_at ON enrichment_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AddJob(ctx context.Context, record model.JobRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		record.JobID, record.CompanyID, record.CompanyName, record.Title, record.Location,
		record.Description, record.Division, record.Confidence, record.Reasoning, record.Link,
		record.PostedAt, record.CreatedAt, record.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert job %s", record.JobID)
}

func (s *PostgresStore) GetJobByExternalID(ctx context.Context, externalID string) (*model.JobRecord, error) {
	var j model.JobRecord
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at FROM jobs WHERE job_id = $1`,
		model.JobID(externalID),
	).Scan(&j.JobID, &j.CompanyID, &j.CompanyName, &j.Title, &j.Location,
		&j.Description, &j.Division, &j.Confidence, &j.Reasoning, &j.Link,
		&j.PostedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get job")
	}
	return &j, nil
}

func (s *PostgresStore) ListJobsSince(ctx context.Context, since time.Time) ([]model.JobRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at
		 FROM jobs WHERE created_at >= $1 ORDER BY created_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.JobRecord
	for rows.Next() {
		var j model.JobRecord
		if err := rows.Scan(&j.JobID, &j.CompanyID, &j.CompanyName, &j.Title, &j.Location,
			&j.Description, &j.Division, &j.Confidence, &j.Reasoning, &j.Link,
			&j.PostedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) GetCompany(ctx context.Context, companyID string) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	var hierarchyJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT company_id, display_name, domain, link, hierarchy, created_at, updated_at FROM company_profiles WHERE company_id = $1`,
		companyID,
	).Scan(&p.CompanyID, &p.DisplayName, &p.Domain, &p.Link, &hierarchyJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get company")
	}
	if err := json.Unmarshal(hierarchyJSON, &p.Hierarchy); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal hierarchy")
	}
	return &p, nil
}

func (s *PostgresStore) AddCompany(ctx context.Context, profile model.CompanyProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	hierarchyJSON, err := json.Marshal(profile.Hierarchy)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal hierarchy")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO company_profiles (company_id, display_name, domain, link, hierarchy, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.CompanyID, profile.DisplayName, profile.Domain, profile.Link,
		hierarchyJSON, profile.CreatedAt, profile.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert company %s", profile.CompanyID)
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, profile model.CompanyProfile) error {
	hierarchyJSON, err := json.Marshal(profile.Hierarchy)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal hierarchy")
	}

	// updated_at only moves forward: the WHERE clause refuses to rewind.
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE company_profiles SET display_name = $1, domain = $2, link = $3, hierarchy = $4, updated_at = $5
		 WHERE company_id = $6 AND updated_at <= $5`,
		profile.DisplayName, profile.Domain, profile.Link, hierarchyJSON, now,
		profile.CompanyID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", profile.CompanyID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("company not found: %s", profile.CompanyID)
	}
	return nil
}

func (s *PostgresStore) ListCompaniesUpdatedSince(ctx context.Context, since time.Time) ([]model.CompanyProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_id, display_name, domain, link, hierarchy, created_at, updated_at
		 FROM company_profiles WHERE updated_at >= $1 ORDER BY updated_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var profiles []model.CompanyProfile
	for rows.Next() {
		var p model.CompanyProfile
		var hierarchyJSON []byte
		if err := rows.Scan(&p.CompanyID, &p.DisplayName, &p.Domain, &p.Link, &hierarchyJSON,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		if err := json.Unmarshal(hierarchyJSON, &p.Hierarchy); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal hierarchy")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) GetCacheEntry(ctx context.Context, operation, keyHash string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM enrichment_cache WHERE operation = $1 AND key_hash = $2 AND (expires_at IS NULL OR expires_at > now())`,
		operation, keyHash,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cache entry")
	}
	return payload, nil
}

func (s *PostgresStore) PutCacheEntry(ctx context.Context, operation, keyHash string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_cache (operation, key_hash, payload, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (operation, key_hash) DO UPDATE SET
			payload = EXCLUDED.payload,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at`,
		operation, keyHash, payload, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: put cache entry")
}

func (s *PostgresStore) DeleteExpiredCacheEntries(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM enrichment_cache WHERE expires_at IS NOT NULL AND expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired cache entries")
	}
	return int(tag.RowsAffected()), nil
}
