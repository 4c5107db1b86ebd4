// Package scholar provides a client for the Semantic Scholar Graph API,
// the exact-match-oriented scholarly index used for citation lookups.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/refcheck/internal/lookup"
	"github.com/matsen/refcheck/internal/textmatch"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// RateLimit is 1 request per second, the unauthenticated S2 budget.
	RateLimit = 1.0

	// DefaultFields are the paper fields requested for lookups.
	DefaultFields = "title,authors,externalIds,url"

	// broadSearchLimit is the candidate count for the fallback relevance
	// search when the exact title match comes back empty.
	broadSearchLimit = 3
)

// Client is a rate-limited HTTP client for the scholarly index.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      lookup.RetryPolicy
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p lookup.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a new scholarly index client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: lookup.DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		retry:      lookup.DefaultRetryPolicy(),
		baseURL:    BaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// paper is the wire format for a paper in API responses.
type paper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// searchResponse is the wire format for both search endpoints.
type searchResponse struct {
	Total int     `json:"total"`
	Data  []paper `json:"data"`
}

// get performs a rate-limited, retried GET and decodes the search payload.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*searchResponse, error) {
	var result searchResponse

	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", lookup.ErrNetworkError, err)
		}
		defer resp.Body.Close()

		if err := lookup.CheckStatus(lookup.SourceScholar, resp); err != nil {
			return err
		}

		result = searchResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("%w: %v", lookup.ErrInvalidResponse, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// MatchTitle queries the exact title-match endpoint. Returns ErrNotFound
// when the index has no confident match.
func (c *Client) MatchTitle(ctx context.Context, title string) (*lookup.Candidate, error) {
	params := url.Values{}
	params.Set("query", title)
	params.Set("fields", DefaultFields)

	result, err := c.get(ctx, "/paper/search/match", params)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, lookup.ErrNotFound
	}

	cand := toCandidate(result.Data[0])
	return &cand, nil
}

// Search runs the broader relevance search and returns the candidate whose
// title is most similar to the query, or ErrNotFound for an empty result.
func (c *Client) Search(ctx context.Context, title string) (*lookup.Candidate, error) {
	params := url.Values{}
	params.Set("query", title)
	params.Set("fields", DefaultFields)
	params.Set("limit", fmt.Sprintf("%d", broadSearchLimit))

	result, err := c.get(ctx, "/paper/search", params)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, lookup.ErrNotFound
	}

	want := textmatch.Normalize(title)
	best := result.Data[0]
	bestScore := -1.0
	for _, p := range result.Data {
		score := textmatch.Similarity(want, textmatch.Normalize(p.Title))
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	cand := toCandidate(best)
	return &cand, nil
}

// FindPaper resolves a citation title against the index: exact match first,
// then the broader relevance search.
func (c *Client) FindPaper(ctx context.Context, title string) (*lookup.Candidate, error) {
	cand, err := c.MatchTitle(ctx, title)
	if err == nil {
		return cand, nil
	}
	if !lookup.IsNotFound(err) {
		return nil, err
	}
	return c.Search(ctx, title)
}

// toCandidate converts a wire paper to a lookup candidate.
func toCandidate(p paper) lookup.Candidate {
	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		authors = append(authors, a.Name)
	}

	u := p.URL
	if u == "" && p.PaperID != "" {
		u = "https://www.semanticscholar.org/paper/" + p.PaperID
	}

	return lookup.Candidate{
		Title:   p.Title,
		Authors: authors,
		ID:      p.PaperID,
		Source:  lookup.SourceScholar,
		URL:     u,
	}
}
