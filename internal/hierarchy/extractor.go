// Package hierarchy extracts reporting-chain candidates for a company by
// combining web search snippets with an AI structured-extraction call.
package hierarchy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/cache"
	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
	"github.com/sells-group/talent-cli/internal/resilience"
	"github.com/sells-group/talent-cli/pkg/anthropic"
	"github.com/sells-group/talent-cli/pkg/serp"
)

const cacheOperation = "hierarchy"

const systemPrompt = `You are a research assistant that identifies the reporting chain around a specific job opening at a company.

Given a job posting and web search snippets about the company's team, return the most likely chain of people this role reports through. Order the list from the closest hiring manager first up to the VP or practice lead last. Only include real named people supported by the snippets. Exclude CEOs, CFOs, and other executives unrelated to this role's function.

Respond with JSON only, no prose, in this exact shape:
{"hierarchy": [{"name": "Full Name", "title": "Job Title"}]}

If no real people can be identified, respond with {"hierarchy": []}.`

// Extractor runs the search and AI round trip that produces a sanitized
// hierarchy for one job. All outcomes short of a search transport failure
// are non-fatal and reported as a nil result.
type Extractor struct {
	search serp.Client
	ai     anthropic.Client
	cache  *cache.Gateway
	cfg    config.HierarchyConfig
	model  string
	tokens int64
}

// NewExtractor wires the extractor's collaborators.
func NewExtractor(search serp.Client, ai anthropic.Client, gw *cache.Gateway, hcfg config.HierarchyConfig, acfg config.AnthropicConfig) *Extractor {
	return &Extractor{
		search: search,
		ai:     ai,
		cache:  gw,
		cfg:    hcfg,
		model:  acfg.Model,
		tokens: acfg.MaxTokens,
	}
}

// Extract resolves the hierarchy for a job. A nil result with a nil error
// means nothing useful was found; only transport failures return an error.
func (e *Extractor) Extract(ctx context.Context, job model.JobRecord, domain string) (*model.HierarchyResult, error) {
	query := e.buildQuery(job, domain)

	resp, err := e.search.Search(ctx, query, job.Location)
	if err != nil {
		return nil, eris.Wrap(err, "hierarchy: search team pages")
	}

	snippets := joinSnippets(resp)
	if !e.relevant(snippets) {
		zap.L().Debug("no relevant search results",
			zap.String("company", job.CompanyName),
			zap.String("query", query))
		return nil, nil
	}

	digest := sha256.Sum256([]byte(snippets))
	key := cache.Key(cacheOperation, job.CompanyName, hex.EncodeToString(digest[:]))
	if hit, ok := cache.TryGet[model.HierarchyResult](ctx, e.cache, cacheOperation, key); ok {
		return &hit, nil
	}

	result := e.callAI(ctx, job, snippets)
	if result == nil || result.IsEmpty() {
		return nil, nil
	}

	if err := cache.Put(ctx, e.cache, cacheOperation, key, *result); err != nil {
		zap.L().Warn("cache write failed", zap.Error(err))
	}
	return result, nil
}

func (e *Extractor) buildQuery(job model.JobRecord, domain string) string {
	parts := []string{job.CompanyName}
	if job.Division != "" {
		parts = append(parts, job.Division)
	}
	parts = append(parts, strings.Join(e.cfg.SearchKeywords, " "))
	if domain != "" {
		parts = append(parts, "site:"+domain)
	}
	return strings.Join(parts, " ")
}

// relevant reports whether the concatenated snippets mention any configured
// relevance token. Gating here avoids spending an AI call on pages that have
// nothing to do with the team.
func (e *Extractor) relevant(snippets string) bool {
	if strings.TrimSpace(snippets) == "" {
		return false
	}
	lowered := strings.ToLower(snippets)
	for _, tok := range e.cfg.RelevanceTokens {
		if tok != "" && strings.Contains(lowered, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// callAI performs the chat round trip and parses the structured payload.
// Every failure mode is logged and collapsed to nil.
func (e *Extractor) callAI(ctx context.Context, job model.JobRecord, snippets string) *model.HierarchyResult {
	user := fmt.Sprintf(`Company: %s
Division: %s
Open role: %s

Job description:
%s

Search snippets:
%s`,
		job.CompanyName, job.Division, job.Title,
		truncate(job.Description, e.cfg.SnippetCharLimit),
		truncate(snippets, e.cfg.SnippetCharLimit))

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "hierarchy")
	type completion struct {
		text  string
		usage anthropic.TokenUsage
	}
	comp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (completion, error) {
		text, usage, err := anthropic.Complete(ctx, e.ai, e.model, e.tokens, systemPrompt, user)
		return completion{text: text, usage: usage}, err
	})
	text, usage := comp.text, comp.usage
	if err != nil {
		zap.L().Warn("hierarchy extraction call failed",
			zap.String("company", job.CompanyName),
			zap.Error(err))
		return nil
	}
	usage.LogCost(e.model, "hierarchy")
	if text == "" {
		zap.L().Debug("model returned no text", zap.String("company", job.CompanyName))
		return nil
	}

	var payload struct {
		Hierarchy []model.HierarchyItem `json:"hierarchy"`
	}
	cleaned := cleanJSON(text)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		zap.L().Warn("unparsable hierarchy payload",
			zap.String("company", job.CompanyName),
			zap.String("payload", cleaned),
			zap.Error(err))
		return nil
	}

	result := Sanitize(e.cfg, model.HierarchyResult{Items: payload.Hierarchy})
	return &result
}

func joinSnippets(resp *serp.SearchResponse) string {
	var sb strings.Builder
	for _, r := range resp.OrganicResults {
		if r.Snippet == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.Snippet)
	}
	return sb.String()
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

// cleanJSON strips markdown fences and extracts the embedded JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
