// Package config loads newsagent settings from a YAML file and the environment.
//
// Settings are grouped into sections (llm, agent, search, tools, ui, metrics).
// Precedence, highest first: command-line flags, environment variables, the
// config file, then the defaults returned by Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-user directory holding config and logs.
	DirName = ".newsagent"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"

	// EnvModel overrides llm.model.
	EnvModel = "NEWSAGENT_MODEL"
	// EnvBaseURL overrides llm.base_url.
	EnvBaseURL = "OPENAI_BASE_URL"
)

// Config is the full newsagent configuration.
type Config struct {
	LLM     LLMSection     `yaml:"llm"`
	Agent   AgentSection   `yaml:"agent"`
	Search  SearchSection  `yaml:"search"`
	Tools   ToolsSection   `yaml:"tools"`
	UI      UISection      `yaml:"ui"`
	Metrics MetricsSection `yaml:"metrics"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		LLM:     defaultLLMSection(),
		Agent:   defaultAgentSection(),
		Search:  defaultSearchSection(),
		Tools:   ToolsSection{},
		UI:      defaultUISection(),
		Metrics: MetricsSection{},
	}
}

// DefaultPath returns ~/.newsagent/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName, FileName), nil
}

// Load reads the config file at path on top of the defaults.
// An empty path means DefaultPath. A missing file at the default path is not
// an error; a missing file the caller named explicitly is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
// getenv is usually os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.LLM.validate()...)
	errs = append(errs, c.Agent.validate()...)
	errs = append(errs, c.Search.validate()...)
	errs = append(errs, c.Tools.validate()...)
	errs = append(errs, c.UI.validate()...)
	return errors.Join(errs...)
}

// MissingCredentialError is returned when the environment variable holding an
// API key is unset or empty.
type MissingCredentialError struct {
	EnvVar string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("API key is required: set the %s environment variable", e.EnvVar)
}
