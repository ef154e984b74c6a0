package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/talent-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Single writer keeps SQLITE_BUSY away and keeps :memory: databases
	// from splitting across pooled connections.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id       TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL,
	company_name TEXT NOT NULL,
	title        TEXT NOT NULL,
	location     TEXT NOT NULL,
	description  TEXT NOT NULL,
	division     TEXT NOT NULL DEFAULT '',
	confidence   REAL NOT NULL DEFAULT 0,
	reasoning    TEXT NOT NULL DEFAULT '',
	link         TEXT NOT NULL DEFAULT '',
	posted_at    DATETIME NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_profiles (
	company_id   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	link         TEXT NOT NULL DEFAULT '',
	hierarchy    TEXT NOT NULL DEFAULT '{}',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_cache (
	id         TEXT PRIMARY KEY,
	operation  TEXT NOT NULL,
	key_hash   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME,
	UNIQUE (operation, key_hash)
);

CREATE INDEX IF NOT EXISTS idx_jobs_company_id ON jobs(company_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_company_profiles_updated_at ON company_profiles(updated_at);
CREATE INDEX IF NOT EXISTS idx_enrichment_cache_expires_at ON enrichment_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddJob(ctx context.Context, record model.JobRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.JobID, record.CompanyID, record.CompanyName, record.Title, record.Location,
		record.Description, record.Division, record.Confidence, record.Reasoning, record.Link,
		record.PostedAt, record.CreatedAt, record.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert job %s", record.JobID)
}

func (s *SQLiteStore) GetJobByExternalID(ctx context.Context, externalID string) (*model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at
		 FROM jobs WHERE job_id = ?`,
		model.JobID(externalID),
	)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobsSince(ctx context.Context, since time.Time) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, company_id, company_name, title, location, description, division, confidence, reasoning, link, posted_at, created_at, updated_at
		 FROM jobs WHERE created_at >= ? ORDER BY created_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, companyID string) (*model.CompanyProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT company_id, display_name, domain, link, hierarchy, created_at, updated_at
		 FROM company_profiles WHERE company_id = ?`,
		companyID,
	)
	return scanCompany(row)
}

func (s *SQLiteStore) AddCompany(ctx context.Context, profile model.CompanyProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	hierarchyJSON, err := json.Marshal(profile.Hierarchy)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal hierarchy")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO company_profiles (company_id, display_name, domain, link, hierarchy, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.CompanyID, profile.DisplayName, profile.Domain, profile.Link,
		string(hierarchyJSON), profile.CreatedAt, profile.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert company %s", profile.CompanyID)
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, profile model.CompanyProfile) error {
	hierarchyJSON, err := json.Marshal(profile.Hierarchy)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal hierarchy")
	}

	// updated_at only moves forward: the WHERE clause refuses to rewind.
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE company_profiles SET display_name = ?, domain = ?, link = ?, hierarchy = ?, updated_at = ?
		 WHERE company_id = ? AND updated_at <= ?`,
		profile.DisplayName, profile.Domain, profile.Link, string(hierarchyJSON), now,
		profile.CompanyID, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", profile.CompanyID)
	}
	return checkRowsAffected(res, "company", profile.CompanyID)
}

func (s *SQLiteStore) ListCompaniesUpdatedSince(ctx context.Context, since time.Time) ([]model.CompanyProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, display_name, domain, link, hierarchy, created_at, updated_at
		 FROM company_profiles WHERE updated_at >= ? ORDER BY updated_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var profiles []model.CompanyProfile
	for rows.Next() {
		p, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) GetCacheEntry(ctx context.Context, operation, keyHash string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM enrichment_cache
		 WHERE operation = ? AND key_hash = ?
		 AND (expires_at IS NULL OR expires_at > ?)`,
		operation, keyHash, time.Now().UTC(),
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cache entry")
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) PutCacheEntry(ctx context.Context, operation, keyHash string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_cache (id, operation, key_hash, payload, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (operation, key_hash) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		uuid.New().String(), operation, keyHash, string(payload), now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: put cache entry")
}

func (s *SQLiteStore) DeleteExpiredCacheEntries(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM enrichment_cache WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cache entries")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.JobRecord, error) {
	var j model.JobRecord
	err := row.Scan(&j.JobID, &j.CompanyID, &j.CompanyName, &j.Title, &j.Location,
		&j.Description, &j.Division, &j.Confidence, &j.Reasoning, &j.Link,
		&j.PostedAt, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}
	return &j, nil
}

func scanCompany(row scannable) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	var hierarchyJSON string
	err := row.Scan(&p.CompanyID, &p.DisplayName, &p.Domain, &p.Link, &hierarchyJSON,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan company")
	}
	if err := json.Unmarshal([]byte(hierarchyJSON), &p.Hierarchy); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal hierarchy")
	}
	return &p, nil
}
