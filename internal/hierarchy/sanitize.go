package hierarchy

import (
	"strings"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
)

// Sanitize filters extracted name/title pairs down to entries that look like
// real people. It drops blank entries, configured placeholder names, and any
// name containing a pronoun, conjunction, or banned role word. Order of
// surviving items is preserved; titles are trimmed but otherwise verbatim.
// De-duplication against an existing profile happens at merge time, not here.
func Sanitize(cfg config.HierarchyConfig, res model.HierarchyResult) model.HierarchyResult {
	var out model.HierarchyResult
	for _, item := range res.Items {
		name := strings.TrimSpace(item.Name)
		title := strings.TrimSpace(item.Title)
		if name == "" || title == "" {
			continue
		}
		if matchesAny(name, cfg.PlaceholderNames) {
			continue
		}
		if hasBannedToken(name, cfg) {
			continue
		}
		out.Items = append(out.Items, model.HierarchyItem{Name: name, Title: title})
		if cfg.MaxItems > 0 && len(out.Items) >= cfg.MaxItems {
			break
		}
	}
	return out
}

func matchesAny(s string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// hasBannedToken reports whether any whitespace- or ampersand-delimited token
// of the name appears in the pronoun, conjunction, or banned-word lists.
func hasBannedToken(name string, cfg config.HierarchyConfig) bool {
	normalized := strings.ReplaceAll(name, "&", " ")
	for _, tok := range strings.Fields(normalized) {
		tok = strings.Trim(strings.ToLower(tok), ".,")
		if tok == "" {
			continue
		}
		if containsFold(cfg.Pronouns, tok) || containsFold(cfg.Conjunctions, tok) || containsFold(cfg.BannedNameWords, tok) {
			return true
		}
	}
	// A literal ampersand with no surrounding spaces still marks a joined name.
	return containsFold(cfg.Conjunctions, "&") && strings.Contains(name, "&")
}

func containsFold(list []string, tok string) bool {
	for _, v := range list {
		if strings.EqualFold(v, tok) {
			return true
		}
	}
	return false
}
