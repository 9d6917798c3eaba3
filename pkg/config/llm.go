package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultModel is served by Gemini's OpenAI-compatible endpoint.
	DefaultModel = "gemini-2.5-flash"
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	// DefaultAPIKeyEnv names the variable holding the model credential.
	DefaultAPIKeyEnv = "GOOGLE_API_KEY"
	// DefaultLLMTimeout bounds a single model call.
	DefaultLLMTimeout = 60 * time.Second
)

// LLMSection configures the model provider.
type LLMSection struct {
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	// EstimateUsage counts tokens locally when the provider omits usage.
	EstimateUsage bool `yaml:"estimate_usage"`
}

func defaultLLMSection() LLMSection {
	return LLMSection{
		Model:     DefaultModel,
		BaseURL:   DefaultBaseURL,
		APIKeyEnv: DefaultAPIKeyEnv,
		Timeout:   DefaultLLMTimeout,
	}
}

// ResolveAPIKey reads the model credential from the environment.
func (s LLMSection) ResolveAPIKey(getenv func(string) string) (string, error) {
	name := s.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	key := getenv(name)
	if key == "" {
		return "", &MissingCredentialError{EnvVar: name}
	}
	return key, nil
}

func (s LLMSection) validate() []error {
	var errs []error
	if s.Model == "" {
		errs = append(errs, fmt.Errorf("llm.model must not be empty"))
	}
	if s.BaseURL != "" {
		if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("llm.base_url %q is not an absolute URL", s.BaseURL))
		}
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %g", s.Temperature))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive, got %s", s.Timeout))
	}
	return errs
}
