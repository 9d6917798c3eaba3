package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DuckDuckGoEndpoint is the keyless HTML search page.
	DuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

	searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBackoff      = 30 * time.Second
	maxRetries      = 3

	// maxResultPageBytes caps how much of a results page is read.
	maxResultPageBytes = 2 << 20
)

// ddgLimiter enforces one query per second across all DuckDuckGo providers
// in the process.
var ddgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// DuckDuckGo scrapes DuckDuckGo's HTML results page.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
	limiter  *rate.Limiter
	backoff  time.Duration
}

// DuckDuckGoOption configures a DuckDuckGo provider.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoClient sets the HTTP client.
func WithDuckDuckGoClient(client *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.client = client
	}
}

// WithDuckDuckGoEndpoint overrides the results page URL.
func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.endpoint = endpoint
	}
}

// WithRateLimiter replaces the shared limiter. Pass rate.NewLimiter(rate.Inf, 0)
// to disable limiting.
func WithRateLimiter(limiter *rate.Limiter) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.limiter = limiter
	}
}

// WithBackoff sets the initial delay after a 429 response.
func WithBackoff(delay time.Duration) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.backoff = delay
	}
}

// NewDuckDuckGo creates a DuckDuckGo provider with a modest timeout.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: DuckDuckGoEndpoint,
		limiter:  ddgLimiter,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the provider name.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search fetches and parses one results page.
func (d *DuckDuckGo) Search(ctx context.Context, q Query) ([]Article, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.Text)
	if q.Region != "" {
		params.Set("kl", q.Region)
	}
	if q.Recent {
		params.Set("df", "w")
	}
	reqURL := d.endpoint + "?" + params.Encode()

	resp, err := d.fetch(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	articles, err := parseDuckDuckGoResults(string(body))
	if err != nil {
		return nil, err
	}
	if q.MaxResults > 0 && len(articles) > q.MaxResults {
		articles = articles[:q.MaxResults]
	}
	return articles, nil
}

// fetch issues the request, backing off and retrying on 429 with the delay
// doubling up to maxBackoff.
func (d *DuckDuckGo) fetch(ctx context.Context, reqURL string) (*http.Response, error) {
	delay := d.backoff
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", searchUserAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
}
