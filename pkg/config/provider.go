package config

import (
	"fmt"

	"github.com/entrhq/newsagent/pkg/llm/openai"
)

// BuildProvider creates the model provider from resolved settings. Callers
// apply flags and ApplyEnv before calling, so cfg already reflects
// CLI flags > environment variables > config file > defaults.
func BuildProvider(s LLMSection, apiKey string) (*openai.Provider, error) {
	if apiKey == "" {
		return nil, &MissingCredentialError{EnvVar: s.APIKeyEnv}
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(s.Model),
		openai.WithTemperature(s.Temperature),
		openai.WithStop("\nObservation:"),
	}
	if s.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(s.BaseURL))
	}

	provider, err := openai.NewProvider(apiKey, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}
