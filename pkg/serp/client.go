// Package serp provides a client for a SerpAPI-compatible search service.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://serpapi.com"

// Client defines the search operations used by the pipeline.
type Client interface {
	// Search performs a generic web search and returns organic results.
	Search(ctx context.Context, query, location string, opts ...SearchOption) (*SearchResponse, error)
	// SearchJobs performs a job-listing search for the given query and location.
	SearchJobs(ctx context.Context, query, location string, opts ...SearchOption) (*JobsResponse, error)
}

// SearchResponse is the parsed web-search response.
type SearchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	Pagination     Pagination      `json:"serpapi_pagination"`
}

// OrganicResult is a single ranked web-search result.
type OrganicResult struct {
	Title            string   `json:"title"`
	Link             string   `json:"link"`
	DisplayedLink    string   `json:"displayed_link"`
	Snippet          string   `json:"snippet"`
	Date             string   `json:"date"`
	HighlightedWords []string `json:"snippet_highlighted_words"`
}

// JobsResponse is the parsed job-search response.
type JobsResponse struct {
	JobsResults   []JobResult `json:"jobs_results"`
	NextPageToken string      `json:"next_page_token"`
}

// JobResult is a single job listing.
type JobResult struct {
	Title              string             `json:"title"`
	CompanyName        string             `json:"company_name"`
	Location           string             `json:"location"`
	Description        string             `json:"description"`
	ShareLink          string             `json:"share_link"`
	JobID              string             `json:"job_id"`
	DetectedExtensions DetectedExtensions `json:"detected_extensions"`
}

// DetectedExtensions holds provider-parsed listing metadata.
type DetectedExtensions struct {
	PostedAt     string `json:"posted_at"`
	ScheduleType string `json:"schedule_type"`
}

// Pagination carries continuation state for web searches.
type Pagination struct {
	Next string `json:"next"`
}

// SearchOption configures a single search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	start     int
	pageToken string
}

// WithStart sets the result offset for web-search pagination.
func WithStart(start int) SearchOption {
	return func(o *searchOpts) {
		o.start = start
	}
}

// WithPageToken sets the continuation token for job-search pagination.
func WithPageToken(token string) SearchOption {
	return func(o *searchOpts) {
		o.pageToken = token
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "serp: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("serp: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serp: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "serp: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("serp: unexpected status %d: %s", statusCode, string(body))
	}
	return body, nil
}

func (c *httpClient) Search(ctx context.Context, query, location string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	if location != "" {
		params.Set("location", location)
	}
	if so.start > 0 {
		params.Set("start", fmt.Sprintf("%d", so.start))
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) SearchJobs(ctx context.Context, query, location string, opts ...SearchOption) (*JobsResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", query)
	if location != "" {
		params.Set("location", location)
	}
	if so.pageToken != "" {
		params.Set("next_page_token", so.pageToken)
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result JobsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal jobs response")
	}
	return &result, nil
}
