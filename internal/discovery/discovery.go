// Package discovery resolves a company's website domain from web search
// results. Resolution is best-effort; an unresolved domain is not an error.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/pkg/serp"
)

var domainPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:com|org|net|io|co|us|gov|edu))\b`)

// Resolver looks up company domains through the search provider.
type Resolver struct {
	search serp.Client
}

// NewResolver returns a Resolver backed by the given search client.
func NewResolver(search serp.Client) *Resolver {
	return &Resolver{search: search}
}

// ResolveDomain finds the company's website domain and a canonical link for
// it. When no confident match exists both return values are empty; callers
// proceed without a domain. An error is returned only when the search call
// itself fails.
func (r *Resolver) ResolveDomain(ctx context.Context, companyName, location string) (domain, link string, err error) {
	if strings.TrimSpace(companyName) == "" {
		return "", "", eris.New("discovery: company name is required")
	}

	query := fmt.Sprintf("%s official site", companyName)
	resp, err := r.search.Search(ctx, query, location)
	if err != nil {
		return "", "", eris.Wrap(err, "discovery: search company site")
	}

	// First pass: a bare domain printed in a snippet or displayed link is
	// the strongest signal.
	for _, res := range resp.OrganicResults {
		for _, text := range []string{res.DisplayedLink, res.Snippet} {
			if m := domainPattern.FindString(strings.ToLower(text)); m != "" {
				d := strings.TrimPrefix(m, "www.")
				zap.L().Debug("resolved domain from snippet",
					zap.String("company", companyName),
					zap.String("domain", d))
				return d, res.Link, nil
			}
		}
	}

	// Fallback: first result whose link contains a token of the company name.
	tokens := nameTokens(companyName)
	for _, res := range resp.OrganicResults {
		lowered := strings.ToLower(res.Link)
		for _, tok := range tokens {
			if strings.Contains(lowered, tok) {
				d := hostOf(res.Link)
				if d == "" {
					continue
				}
				zap.L().Debug("resolved domain from link token",
					zap.String("company", companyName),
					zap.String("token", tok),
					zap.String("domain", d))
				return d, res.Link, nil
			}
		}
	}

	zap.L().Debug("no domain resolved", zap.String("company", companyName))
	return "", "", nil
}

// nameTokens splits a company name into lowercase tokens worth matching
// against a URL. Single-character tokens are too noisy to use.
func nameTokens(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,&")
		if len(tok) > 1 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
