// Package validate filters raw job postings and rewrites their titles to a
// canonical short form before they are persisted.
package validate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
)

// Validator applies the posting acceptance rules and title normalization
// configured for the pipeline. All lists are injected so they can be tuned
// without touching the algorithm.
type Validator struct {
	cfg config.ValidateConfig
}

// New returns a Validator backed by the given rule configuration.
func New(cfg config.ValidateConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate reports whether a raw posting should be persisted. Rejections are
// logged at debug level and never produce an error.
func (v *Validator) Validate(p model.RawPosting) bool {
	if strings.TrimSpace(p.CompanyName) == "" || strings.TrimSpace(p.Description) == "" {
		v.reject(p, "blank company or description")
		return false
	}

	loc := strings.ToLower(p.Location)
	if strings.Contains(loc, "remote") {
		v.reject(p, "remote location")
		return false
	}
	if !v.inRegion(loc) {
		v.reject(p, "outside configured regions")
		return false
	}

	if strings.Contains(strings.ToLower(p.Title), "center") {
		v.reject(p, "facility role")
		return false
	}

	company := strings.ToLower(p.CompanyName)
	for _, agency := range v.cfg.StaffingAgencies {
		if agency != "" && strings.Contains(company, strings.ToLower(agency)) {
			v.reject(p, "staffing agency")
			return false
		}
	}

	return true
}

func (v *Validator) inRegion(loc string) bool {
	for _, suffix := range v.cfg.RegionSuffixes {
		if strings.HasSuffix(loc, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (v *Validator) reject(p model.RawPosting, reason string) {
	zap.L().Debug("posting rejected",
		zap.String("company", p.CompanyName),
		zap.String("title", p.Title),
		zap.String("location", p.Location),
		zap.String("reason", reason))
}

// NormalizeTitle rewrites a posting's title to its canonical short form.
// Blank titles and titles equal to the company name become the configured
// default. Titles ending in a roman-numeral level suffix are left alone.
// Everything else is cut at the first non-alphanumeric character and then
// truncated after the highest-index occurrence of a configured role keyword.
// The function is idempotent.
func (v *Validator) NormalizeTitle(p model.RawPosting) string {
	title := strings.TrimSpace(p.Title)
	if title == "" || strings.EqualFold(title, strings.TrimSpace(p.CompanyName)) {
		return v.cfg.DefaultTitle
	}

	if hasRomanSuffix(title) {
		return title
	}

	if i := indexSpecial(title); i > 0 {
		title = strings.TrimSpace(title[:i])
	}

	lower := strings.ToLower(title)
	best := -1
	end := 0
	for _, kw := range v.cfg.TitleKeywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		// Highest start index wins; on a tie the earlier keyword in the
		// configured list is kept.
		if i := strings.LastIndex(lower, k); i > best {
			best = i
			end = i + len(k)
		}
	}
	if best >= 0 {
		title = strings.TrimSpace(title[:end])
	}
	return title
}

func hasRomanSuffix(title string) bool {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return false
	}
	switch fields[len(fields)-1] {
	case "I", "II", "III":
		return true
	}
	return false
}

// indexSpecial returns the index of the first character outside the set of
// letters, digits, spaces and hyphens, or -1 if none exists.
func indexSpecial(s string) int {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
		default:
			return i
		}
	}
	return -1
}
