// Package doi resolves bibliographic evidence to canonical citations: DOI to
// BibTeX via doi2bib.org with a CrossRef fallback, title/author metadata to
// DOI via the CrossRef search API, and arXiv ids to DOI via the abstract
// page. All network traffic goes through one rate-limited, retrying GET
// helper.
package doi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DOI2BibURL is the primary DOI-to-citation service.
	DOI2BibURL = "https://doi2bib.org/bib"

	// CrossRefWorksURL is the CrossRef works API, used both as the
	// secondary citation source and for metadata search.
	CrossRefWorksURL = "https://api.crossref.org/works"

	// ArxivAbsURL is the arXiv abstract page base.
	ArxivAbsURL = "https://arxiv.org/abs"

	// MaxRetries bounds attempts against HTTP 429 responses.
	MaxRetries = 3

	// BackoffBase is the delay before the first 429 retry; it doubles on
	// each subsequent attempt.
	BackoffBase = time.Second

	// RateLimit is the outbound request rate in requests per second.
	RateLimit = 5.0

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// Client performs lookups against the citation services. It is the sole
// network boundary of the enricher.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	userAgent    string
	doi2bibBase  string
	crossrefBase string
	arxivBase    string
	backoffBase  time.Duration
	logw         io.Writer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header. CrossRef routes requests that
// carry a mailto into its polite pool, so callers should include one when
// configured.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithDOI2BibBase sets a custom primary service base URL (for testing).
func WithDOI2BibBase(url string) ClientOption {
	return func(c *Client) {
		c.doi2bibBase = url
	}
}

// WithCrossRefBase sets a custom CrossRef base URL (for testing).
func WithCrossRefBase(url string) ClientOption {
	return func(c *Client) {
		c.crossrefBase = url
	}
}

// WithArxivBase sets a custom arXiv base URL (for testing).
func WithArxivBase(url string) ClientOption {
	return func(c *Client) {
		c.arxivBase = url
	}
}

// WithBackoffBase sets the base 429 retry delay (for testing).
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffBase = d
	}
}

// WithLogWriter redirects advisory warnings (default os.Stderr).
func WithLogWriter(w io.Writer) ClientOption {
	return func(c *Client) {
		c.logw = w
	}
}

// NewClient creates a lookup client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Limit(RateLimit), 1),
		userAgent:    "bibup/1.0",
		doi2bibBase:  DOI2BibURL,
		crossrefBase: CrossRefWorksURL,
		arxivBase:    ArxivAbsURL,
		backoffBase:  BackoffBase,
		logw:         os.Stderr,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET with rate limiting and bounded 429 backoff. Only 429
// responses are retried; any other non-2xx status and all transport errors
// are returned immediately.
func (c *Client) get(ctx context.Context, url, accept string) (string, error) {
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == MaxRetries {
				break
			}
			wait := c.backoffBase << (attempt - 1)
			fmt.Fprintf(c.logw, "WARNING: 429 from %s, retrying in %s\n", url, wait)
			if err := sleep(ctx, wait); err != nil {
				return "", fmt.Errorf("%w: %s", ErrRateLimited, url)
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return "", &APIError{StatusCode: resp.StatusCode, URL: url}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
		}
		return string(body), nil
	}

	return "", fmt.Errorf("%w: %s after %d attempts", ErrRateLimited, url, MaxRetries)
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
