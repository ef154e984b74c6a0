package model

import (
	"strings"
	"time"
)

// ProfileStatus tracks where a company sits within a single enrichment pass.
type ProfileStatus string

const (
	ProfileStatusPending       ProfileStatus = "pending"
	ProfileStatusDiscovering   ProfileStatus = "discovering_domain"
	ProfileStatusSearching     ProfileStatus = "searching_hierarchy"
	ProfileStatusCacheHit      ProfileStatus = "cache_hit"
	ProfileStatusCallingAI     ProfileStatus = "calling_ai"
	ProfileStatusSanitizing    ProfileStatus = "sanitizing"
	ProfileStatusPersisted     ProfileStatus = "persisted"
	ProfileStatusSkippedFresh  ProfileStatus = "skipped_fresh"
	ProfileStatusSkippedNoHits ProfileStatus = "skipped_no_relevant_results"
	ProfileStatusFailed        ProfileStatus = "failed"
)

// HierarchyItem is one name/title pair in an inferred hiring chain.
type HierarchyItem struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// HierarchyResult is an ordered hiring chain, closest manager first,
// VP/practice lead last. At most three entries survive extraction.
type HierarchyResult struct {
	Items []HierarchyItem `json:"items"`
}

// IsEmpty reports whether the result carries no items.
func (h *HierarchyResult) IsEmpty() bool {
	return h == nil || len(h.Items) == 0
}

// ContainsName reports whether an item with the given name exists,
// compared case-insensitively.
func (h *HierarchyResult) ContainsName(name string) bool {
	if h == nil {
		return false
	}
	for _, item := range h.Items {
		if strings.EqualFold(item.Name, name) {
			return true
		}
	}
	return false
}

// CompanyProfile is the persisted enrichment state for one company.
type CompanyProfile struct {
	CompanyID   string          `json:"company_id"`
	DisplayName string          `json:"display_name"`
	Domain      string          `json:"domain,omitempty"`
	Link        string          `json:"link,omitempty"`
	Hierarchy   HierarchyResult `json:"hierarchy"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
