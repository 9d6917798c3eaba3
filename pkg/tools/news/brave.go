package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BraveNewsEndpoint is the Brave Search news API.
const BraveNewsEndpoint = "https://api.search.brave.com/res/v1/news/search"

// Brave queries the Brave Search news API. It needs a subscription token.
type Brave struct {
	apiKey   string
	client   *http.Client
	endpoint string
}

// BraveOption configures a Brave provider.
type BraveOption func(*Brave)

// WithBraveClient sets the HTTP client.
func WithBraveClient(client *http.Client) BraveOption {
	return func(b *Brave) {
		b.client = client
	}
}

// WithBraveEndpoint overrides the API URL.
func WithBraveEndpoint(endpoint string) BraveOption {
	return func(b *Brave) {
		b.endpoint = endpoint
	}
}

// NewBrave creates a Brave news provider.
func NewBrave(apiKey string, opts ...BraveOption) (*Brave, error) {
	if apiKey == "" {
		return nil, errors.New("brave api key is required")
	}
	b := &Brave{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: BraveNewsEndpoint,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the provider name.
func (b *Brave) Name() string { return "brave" }

type braveNewsResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Age         string `json:"age"`
		PageAge     string `json:"page_age"`
		MetaURL     struct {
			Hostname string `json:"hostname"`
		} `json:"meta_url"`
	} `json:"results"`
}

// Search calls the news endpoint.
func (b *Brave) Search(ctx context.Context, q Query) ([]Article, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	if q.MaxResults > 0 {
		params.Set("count", strconv.Itoa(q.MaxResults))
	}
	if country := regionCountry(q.Region); country != "" {
		params.Set("country", country)
	}
	if lang := regionLanguage(q.Region); lang != "" {
		params.Set("search_lang", lang)
	}
	if q.Recent {
		params.Set("freshness", "pw")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed braveNewsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	articles := make([]Article, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		date := normalizeDate(r.PageAge)
		if date == "" {
			date = r.Age
		}
		source := r.MetaURL.Hostname
		if source == "" {
			source = sourceFromURL(r.URL)
		}
		articles = append(articles, Article{
			Title:  r.Title,
			Body:   r.Description,
			Source: trimWWW(source),
			Date:   date,
			URL:    r.URL,
		})
	}

	if q.MaxResults > 0 && len(articles) > q.MaxResults {
		articles = articles[:q.MaxResults]
	}
	return articles, nil
}

func trimWWW(host string) string {
	if len(host) > 4 && host[:4] == "www." {
		return host[4:]
	}
	return host
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
