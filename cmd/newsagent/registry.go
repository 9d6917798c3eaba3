package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/config"
	"github.com/entrhq/newsagent/pkg/logging"
	"github.com/entrhq/newsagent/pkg/tools/news"
	"github.com/entrhq/newsagent/pkg/tools/sentiment"
)

var mainLog *logging.Logger

func init() {
	var err error
	mainLog, err = logging.NewLogger("main")
	if err != nil {
		mainLog.Warnf("Failed to initialize main logger, using stderr fallback: %v", err)
	}
}

// buildRegistry registers the search and sentiment tools that tools.disabled
// does not exclude.
func buildRegistry(cfg *config.Config, getenv func(string) string) (*tools.Registry, error) {
	filter, err := cfg.Tools.Filter()
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(tools.WithCallTimeout(cfg.Agent.ToolTimeout))

	candidates := make([]tools.Tool, 0, 2)

	searchTool, err := buildSearchTool(cfg.Search, getenv)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, searchTool)

	sentimentTool, err := sentiment.NewDefaultTool()
	if err != nil {
		return nil, fmt.Errorf("failed to load sentiment lexicon: %w", err)
	}
	candidates = append(candidates, sentimentTool)

	for _, tool := range candidates {
		if !filter.Allows(tool.Name()) {
			mainLog.Infof("tool %s disabled by configuration", tool.Name())
			continue
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	if registry.Len() == 0 {
		return nil, errors.New("every tool is disabled by tools.disabled")
	}
	return registry, nil
}

// buildSearchTool queries Brave first when a key is configured, then DuckDuckGo.
func buildSearchTool(s config.SearchSection, getenv func(string) string) (*news.SearchTool, error) {
	client := &http.Client{Timeout: s.Timeout}

	var providers []news.Provider
	if key := s.BraveAPIKey(getenv); key != "" {
		brave, err := news.NewBrave(key, news.WithBraveClient(client))
		if err != nil {
			return nil, err
		}
		providers = append(providers, brave)
	}
	providers = append(providers, news.NewDuckDuckGo(news.WithDuckDuckGoClient(client)))

	return news.NewSearchTool(providers,
		news.WithRegion(s.Region),
		news.WithMaxResults(s.MaxResults),
		news.WithCache(s.CacheSize, s.CacheTTL),
	)
}
