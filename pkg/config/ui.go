package config

import "fmt"

// Color modes for terminal output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// UISection controls the interactive CLI.
type UISection struct {
	// Verbose renders thoughts, actions and observations while a run progresses.
	Verbose bool `yaml:"verbose"`
	// Color is one of auto, always or never.
	Color string `yaml:"color"`
	// ShowTokens prints the per-step token monitor line.
	ShowTokens bool `yaml:"show_tokens"`
}

func defaultUISection() UISection {
	return UISection{
		Verbose:    true,
		Color:      ColorAuto,
		ShowTokens: true,
	}
}

func (s UISection) validate() []error {
	switch s.Color {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return []error{fmt.Errorf("ui.color must be one of auto, always, never; got %q", s.Color)}
	}
}

// MetricsSection exposes Prometheus metrics over HTTP.
type MetricsSection struct {
	// Addr is the listen address for /metrics, e.g. ":9090". Empty disables the endpoint.
	Addr string `yaml:"addr"`
}
