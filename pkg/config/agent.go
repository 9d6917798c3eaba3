package config

import (
	"fmt"
	"time"
)

// AgentSection bounds a single agent run.
type AgentSection struct {
	MaxSteps        int           `yaml:"max_steps"`
	MaxParseRetries int           `yaml:"max_parse_retries"`
	ToolTimeout     time.Duration `yaml:"tool_timeout"`
	// Instructions are appended to the system prompt.
	Instructions string `yaml:"instructions"`
}

func defaultAgentSection() AgentSection {
	return AgentSection{
		MaxSteps:        6,
		MaxParseRetries: 3,
		ToolTimeout:     30 * time.Second,
	}
}

func (s AgentSection) validate() []error {
	var errs []error
	if s.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be positive, got %d", s.MaxSteps))
	}
	if s.MaxParseRetries <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_parse_retries must be positive, got %d", s.MaxParseRetries))
	}
	if s.ToolTimeout < 0 {
		errs = append(errs, fmt.Errorf("agent.tool_timeout must not be negative, got %s", s.ToolTimeout))
	}
	return errs
}
