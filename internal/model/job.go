package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// RawPosting is an externally-sourced job listing as returned by the search
// provider. It is ephemeral: produced by one search call, consumed once by
// the validator, never persisted.
type RawPosting struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Link        string `json:"link"`
	ExternalID  string `json:"external_id"`
	PostedAt    string `json:"posted_at,omitempty"`
}

// JobRecord is the validated, normalized, persisted job entity.
type JobRecord struct {
	JobID       string    `json:"job_id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Division    string    `json:"division,omitempty"`
	Confidence  float64   `json:"confidence"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Link        string    `json:"link,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompanyID derives a stable company identifier from a company name.
// The same name always yields the same id: the name is lowercased, interior
// whitespace collapsed, then hashed.
func CompanyID(name string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), " "))
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])[:16]
}

// JobID derives a stable record id from the provider's external job id.
// External ids are already unique per posting but can be very long and
// contain URL-hostile characters, so they are hashed to a fixed-width key.
func JobID(externalID string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(externalID)))
	return hex.EncodeToString(h[:])[:24]
}
