package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// ToolsSection selects which tools are registered.
type ToolsSection struct {
	// Disabled holds glob patterns matched against tool names, e.g. "Analyze_*".
	Disabled []string `yaml:"disabled"`
}

// ToolFilter decides whether a tool may be registered.
type ToolFilter struct {
	disabled []glob.Glob
}

// Filter compiles the disabled patterns.
func (s ToolsSection) Filter() (*ToolFilter, error) {
	f := &ToolFilter{disabled: make([]glob.Glob, 0, len(s.Disabled))}
	for _, pattern := range s.Disabled {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tools.disabled pattern %q: %w", pattern, err)
		}
		f.disabled = append(f.disabled, g)
	}
	return f, nil
}

// Allows reports whether no disabled pattern matches name.
func (f *ToolFilter) Allows(name string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.disabled {
		if g.Match(name) {
			return false
		}
	}
	return true
}

func (s ToolsSection) validate() []error {
	if _, err := s.Filter(); err != nil {
		return []error{err}
	}
	return nil
}
