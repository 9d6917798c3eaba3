package config

import (
	"fmt"
	"time"
)

// DefaultBraveAPIKeyEnv names the variable that enables the Brave provider.
const DefaultBraveAPIKeyEnv = "BRAVE_API_KEY"

// SearchSection configures the Search_News tool.
type SearchSection struct {
	Region     string        `yaml:"region"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
	// BraveAPIKeyEnv names the variable holding a Brave Search key. When the
	// variable is empty only DuckDuckGo is queried.
	BraveAPIKeyEnv string `yaml:"brave_api_key_env"`
	// CacheTTL of zero disables the result cache.
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

func defaultSearchSection() SearchSection {
	return SearchSection{
		Region:         "us-en",
		MaxResults:     5,
		Timeout:        15 * time.Second,
		BraveAPIKeyEnv: DefaultBraveAPIKeyEnv,
		CacheTTL:       10 * time.Minute,
		CacheSize:      64,
	}
}

// BraveAPIKey returns the Brave key, or "" when Brave is not configured.
func (s SearchSection) BraveAPIKey(getenv func(string) string) string {
	if s.BraveAPIKeyEnv == "" {
		return ""
	}
	return getenv(s.BraveAPIKeyEnv)
}

func (s SearchSection) validate() []error {
	var errs []error
	if s.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", s.MaxResults))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout must be positive, got %s", s.Timeout))
	}
	if s.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("search.cache_ttl must not be negative, got %s", s.CacheTTL))
	}
	if s.CacheTTL > 0 && s.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("search.cache_size must be positive when caching is enabled, got %d", s.CacheSize))
	}
	return errs
}
