// Package arxiv provides a client for the arXiv export API, the preprint
// archive used as the second citation lookup source.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/refcheck/internal/lookup"
	"github.com/matsen/refcheck/internal/textmatch"
)

const (
	// BaseURL is the arXiv export API endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// RateLimit follows the arXiv API guidance of one request per 3s.
	RateLimit = 1.0 / 3.0

	// maxResults is the candidate count requested per query.
	maxResults = 5

	// maxResponseSize bounds how much of the Atom feed is read.
	maxResponseSize = 1 << 20
)

// Client is a rate-limited HTTP client for the preprint archive.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      lookup.RetryPolicy
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

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

// NewClient creates a new preprint archive client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: lookup.DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		retry:      lookup.DefaultRetryPolicy(),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// query performs one rate-limited, retried API call and returns the parsed
// entries.
func (c *Client) query(ctx context.Context, searchQuery string) ([]Entry, error) {
	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))

	var entries []Entry
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", lookup.ErrNetworkError, err)
		}
		defer resp.Body.Close()

		if err := lookup.CheckStatus(lookup.SourceArxiv, resp); err != nil {
			return err
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("%w: reading feed: %v", lookup.ErrInvalidResponse, err)
		}

		entries = ParseFeed(string(body))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// FindPaper resolves a citation against the archive. It queries by quoted
// title and, when a first-author hint is available, additionally by
// title+author; the candidate whose title is most similar to the citation
// title wins.
func (c *Client) FindPaper(ctx context.Context, title string, firstAuthor string) (*lookup.Candidate, error) {
	queries := []string{fmt.Sprintf("ti:%q", title)}
	if firstAuthor != "" {
		queries = append(queries, fmt.Sprintf("ti:%q AND au:%q", title, firstAuthor))
	}

	want := textmatch.Normalize(title)

	var best *Entry
	bestScore := -1.0
	for _, q := range queries {
		entries, err := c.query(ctx, q)
		if err != nil {
			if lookup.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for i := range entries {
			score := textmatch.Similarity(want, textmatch.Normalize(entries[i].Title))
			if score > bestScore {
				bestScore = score
				best = &entries[i]
			}
		}
		if best != nil {
			// The title query already found candidates; the author-refined
			// query would only re-rank the same papers.
			break
		}
	}

	if best == nil {
		return nil, lookup.ErrNotFound
	}

	return &lookup.Candidate{
		Title:   best.Title,
		Authors: best.Authors,
		ID:      best.ID,
		Source:  lookup.SourceArxiv,
		URL:     best.ID,
	}, nil
}
