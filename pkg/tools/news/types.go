package news

import (
	"context"
	"net/url"
	"strings"
)

// Defaults mirrored by the search section of the configuration.
const (
	DefaultRegion     = "us-en"
	DefaultMaxResults = 5
)

// Article is one search hit. Empty fields are rendered with placeholders.
type Article struct {
	Title  string
	Body   string
	Source string
	Date   string
	URL    string
}

// Query is what the tool asks a provider for.
type Query struct {
	Text       string
	Region     string
	MaxResults int
	// Recent restricts results to roughly the past week.
	Recent bool
}

// Provider is a search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Article, error)
}

// sourceFromURL returns the host of a URL without a leading "www.".
func sourceFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// regionCountry maps "us-en" to "us" for APIs that take a country code.
func regionCountry(region string) string {
	if i := strings.IndexByte(region, '-'); i > 0 {
		return region[:i]
	}
	return region
}

// regionLanguage maps "us-en" to "en".
func regionLanguage(region string) string {
	if i := strings.IndexByte(region, '-'); i >= 0 && i < len(region)-1 {
		return region[i+1:]
	}
	return ""
}
