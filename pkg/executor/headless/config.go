package headless

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config represents the configuration for a headless batch
type Config struct {
	// Topics to analyze, in order
	Topics []string `yaml:"topics" json:"topics"`

	// Per-topic limits
	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Verbose logs every agent event
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// ConstraintConfig bounds each topic's run
type ConstraintConfig struct {
	// MaxTokens stops a run once its reported usage passes the budget. Zero disables the budget.
	MaxTokens int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ArtifactConfig defines artifact generation settings
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Constraints: ConstraintConfig{
			MaxTokens: 0,
			Timeout:   5 * time.Minute,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".newsagent/artifacts",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Topics) == 0 {
		return errors.New("at least one topic is required")
	}
	for i, topic := range c.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("topic %d is empty", i+1)
		}
	}

	if c.Constraints.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Constraints.Timeout)
	}
	if c.Constraints.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative, got %d", c.Constraints.MaxTokens)
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return errors.New("artifacts output_dir is required when artifacts are enabled")
	}

	return nil
}
