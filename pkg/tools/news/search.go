package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/entrhq/newsagent/pkg/logging"
)

var searchLog *logging.Logger

func init() {
	var err error
	searchLog, err = logging.NewLogger("news")
	if err != nil {
		searchLog.Warnf("Failed to initialize news logger, using stderr fallback: %v", err)
	}
}

// ToolName is the name the model uses to call the search tool.
const ToolName = "Search_News"

// ErrEmptyQuery is returned for a blank Action Input.
var ErrEmptyQuery = errors.New("search query is empty")

// SearchTool is the Search_News tool.
type SearchTool struct {
	providers  []Provider
	region     string
	maxResults int
	cache      *expirable.LRU[string, string]
}

// SearchOption configures a SearchTool.
type SearchOption func(*SearchTool)

// WithRegion sets the region code, e.g. "us-en".
func WithRegion(region string) SearchOption {
	return func(t *SearchTool) {
		t.region = region
	}
}

// WithMaxResults caps the number of articles returned.
func WithMaxResults(n int) SearchOption {
	return func(t *SearchTool) {
		t.maxResults = n
	}
}

// WithCache keeps up to size formatted results for ttl, keyed by the
// normalized query. Searches that found nothing are not cached. A
// non-positive size or ttl disables the cache.
func WithCache(size int, ttl time.Duration) SearchOption {
	return func(t *SearchTool) {
		if size <= 0 || ttl <= 0 {
			t.cache = nil
			return
		}
		t.cache = expirable.NewLRU[string, string](size, nil, ttl)
	}
}

// NewSearchTool creates the tool over providers tried in order.
func NewSearchTool(providers []Provider, opts ...SearchOption) (*SearchTool, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one search provider is required")
	}
	t := &SearchTool{
		providers:  providers,
		region:     DefaultRegion,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxResults < 1 {
		return nil, fmt.Errorf("max results must be at least 1, got %d", t.maxResults)
	}
	return t, nil
}

// Name returns the tool name.
func (t *SearchTool) Name() string {
	return ToolName
}

// Description returns the tool description.
func (t *SearchTool) Description() string {
	return "Searches recent news articles about a topic. Input is a short search query such as a name, event or company. " +
		"Returns one line per article with date, title, source and summary."
}

// Label names the tool in failure observations.
func (t *SearchTool) Label() string {
	return "search"
}

// Execute searches recent news, falling back to a web search for
// "<query> news" when nothing recent turns up.
func (t *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	query := normalizeQuery(input)
	if query == "" {
		return "", ErrEmptyQuery
	}

	key := t.cacheKey(query)
	if t.cache != nil {
		if cached, ok := t.cache.Get(key); ok {
			searchLog.Debugf("cache hit for %q", query)
			return cached, nil
		}
	}

	articles, recentErr := t.search(ctx, Query{Text: query, Region: t.region, MaxResults: t.maxResults, Recent: true})
	if len(articles) == 0 {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		searchLog.Debugf("no recent news for %q, falling back to web search", query)

		var fallbackErr error
		articles, fallbackErr = t.search(ctx, Query{Text: query + " news", Region: t.region, MaxResults: t.maxResults})
		if len(articles) == 0 && recentErr != nil && fallbackErr != nil {
			return "", fallbackErr
		}
	}

	if len(articles) == 0 {
		return NoResultsMessage, nil
	}

	searchLog.Infof("found %d articles for %q", len(articles), query)
	out := FormatArticles(articles)
	if t.cache != nil {
		t.cache.Add(key, out)
	}
	return out, nil
}

func (t *SearchTool) cacheKey(query string) string {
	return t.region + "|" + strings.ToLower(query)
}

// search tries each provider until one returns articles. The error is the
// last provider failure, and nil if any provider answered.
func (t *SearchTool) search(ctx context.Context, q Query) ([]Article, error) {
	var lastErr error
	answered := false
	for _, p := range t.providers {
		articles, err := p.Search(ctx, q)
		if err != nil {
			searchLog.Warnf("provider %s failed for %q: %v", p.Name(), q.Text, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		answered = true
		if len(articles) > 0 {
			return articles, nil
		}
	}
	if answered {
		return nil, nil
	}
	return nil, lastErr
}

// normalizeQuery trims whitespace and a pair of wrapping quotes, which models
// often add around Action Input.
func normalizeQuery(input string) string {
	q := strings.TrimSpace(input)
	if len(q) >= 2 {
		first, last := q[0], q[len(q)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			q = strings.TrimSpace(q[1 : len(q)-1])
		}
	}
	return q
}
