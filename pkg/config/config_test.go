package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Model != DefaultModel {
		t.Errorf("Expected model %q, got %q", DefaultModel, cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %g", cfg.LLM.Temperature)
	}
	if cfg.Agent.MaxSteps != 6 || cfg.Agent.MaxParseRetries != 3 {
		t.Errorf("Unexpected agent limits: %+v", cfg.Agent)
	}
	if cfg.Search.Region != "us-en" || cfg.Search.MaxResults != 5 {
		t.Errorf("Unexpected search defaults: %+v", cfg.Search)
	}
	if !cfg.UI.Verbose {
		t.Error("Verbose should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("overlays file values on defaults", func(t *testing.T) {
		path := writeFile(t, `
llm:
  model: gemini-2.0-flash
  timeout: 90s
agent:
  max_steps: 4
tools:
  disabled: ["Analyze_*"]
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if cfg.LLM.Model != "gemini-2.0-flash" {
			t.Errorf("Expected model from file, got %q", cfg.LLM.Model)
		}
		if cfg.LLM.Timeout != 90*time.Second {
			t.Errorf("Expected 90s timeout, got %s", cfg.LLM.Timeout)
		}
		if cfg.Agent.MaxSteps != 4 {
			t.Errorf("Expected max_steps 4, got %d", cfg.Agent.MaxSteps)
		}
		if cfg.Agent.MaxParseRetries != 3 {
			t.Errorf("Unset keys should keep defaults, got max_parse_retries %d", cfg.Agent.MaxParseRetries)
		}
		if cfg.LLM.BaseURL != DefaultBaseURL {
			t.Errorf("Unset keys should keep defaults, got base_url %q", cfg.LLM.BaseURL)
		}
		if len(cfg.Tools.Disabled) != 1 {
			t.Errorf("Expected one disabled pattern, got %v", cfg.Tools.Disabled)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Fatal("Expected error for missing explicit path")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist in chain, got %v", err)
		}
	})

	t.Run("missing default file yields defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.LLM.Model != DefaultModel {
			t.Errorf("Expected default model, got %q", cfg.LLM.Model)
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeFile(t, "llm: [unterminated")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected decode error")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvModel:   "gpt-4o-mini",
		EnvBaseURL: "https://api.openai.com/v1",
	}))

	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected env model, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Expected env base URL, got %q", cfg.LLM.BaseURL)
	}

	unchanged := Default()
	unchanged.ApplyEnv(envMap(nil))
	if unchanged.LLM.Model != DefaultModel {
		t.Errorf("Empty env should not override, got %q", unchanged.LLM.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero max steps", func(c *Config) { c.Agent.MaxSteps = 0 }, "agent.max_steps"},
		{"negative retries", func(c *Config) { c.Agent.MaxParseRetries = -1 }, "agent.max_parse_retries"},
		{"zero llm timeout", func(c *Config) { c.LLM.Timeout = 0 }, "llm.timeout"},
		{"relative base url", func(c *Config) { c.LLM.BaseURL = "localhost" }, "llm.base_url"},
		{"temperature out of range", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }, "search.max_results"},
		{"cache without size", func(c *Config) { c.Search.CacheSize = 0 }, "search.cache_size"},
		{"bad glob", func(c *Config) { c.Tools.Disabled = []string{"[unclosed"} }, "tools.disabled"},
		{"unknown color", func(c *Config) { c.UI.Color = "sometimes" }, "ui.color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Agent.MaxSteps = 0
		cfg.Search.MaxResults = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if !strings.Contains(err.Error(), "agent.max_steps") || !strings.Contains(err.Error(), "search.max_results") {
			t.Errorf("Expected both problems reported, got %v", err)
		}
	})
}

func TestResolveAPIKey(t *testing.T) {
	s := Default().LLM

	key, err := s.ResolveAPIKey(envMap(map[string]string{DefaultAPIKeyEnv: "secret"}))
	if err != nil {
		t.Fatalf("ResolveAPIKey failed: %v", err)
	}
	if key != "secret" {
		t.Errorf("Expected secret, got %q", key)
	}

	_, err = s.ResolveAPIKey(envMap(nil))
	var missing *MissingCredentialError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingCredentialError, got %v", err)
	}
	if missing.EnvVar != DefaultAPIKeyEnv {
		t.Errorf("Expected env var %q, got %q", DefaultAPIKeyEnv, missing.EnvVar)
	}
	if !strings.Contains(err.Error(), DefaultAPIKeyEnv) {
		t.Errorf("Error should name the variable, got %q", err.Error())
	}
}

func TestBraveAPIKey(t *testing.T) {
	s := Default().Search
	if got := s.BraveAPIKey(envMap(map[string]string{DefaultBraveAPIKeyEnv: "brave"})); got != "brave" {
		t.Errorf("Expected brave key, got %q", got)
	}

	s.BraveAPIKeyEnv = ""
	if got := s.BraveAPIKey(envMap(map[string]string{DefaultBraveAPIKeyEnv: "brave"})); got != "" {
		t.Errorf("Expected no key when env name is empty, got %q", got)
	}
}

func TestToolFilter(t *testing.T) {
	f, err := ToolsSection{Disabled: []string{"Analyze_*", "Legacy?"}}.Filter()
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	cases := map[string]bool{
		"Search_News":       true,
		"Analyze_Sentiment": false,
		"Legacy1":           false,
		"Legacy12":          true,
	}
	for name, want := range cases {
		if got := f.Allows(name); got != want {
			t.Errorf("Allows(%q) = %v, want %v", name, got, want)
		}
	}

	var nilFilter *ToolFilter
	if !nilFilter.Allows("anything") {
		t.Error("nil filter should allow everything")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.LLM.Model = "gemini-2.0-flash"
	cfg.Search.CacheTTL = 5 * time.Minute
	cfg.Tools.Disabled = []string{"Analyze_*"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}
	if loaded.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("Expected saved model, got %q", loaded.LLM.Model)
	}
	if loaded.Search.CacheTTL != 5*time.Minute {
		t.Errorf("Expected saved cache TTL, got %s", loaded.Search.CacheTTL)
	}
	if len(loaded.Tools.Disabled) != 1 || loaded.Tools.Disabled[0] != "Analyze_*" {
		t.Errorf("Expected saved patterns, got %v", loaded.Tools.Disabled)
	}
}

func TestBuildProvider(t *testing.T) {
	s := Default().LLM

	t.Run("requires key", func(t *testing.T) {
		_, err := BuildProvider(s, "")
		var missing *MissingCredentialError
		if !errors.As(err, &missing) {
			t.Fatalf("Expected MissingCredentialError, got %v", err)
		}
	})

	t.Run("uses configured model and base url", func(t *testing.T) {
		s.Model = "gemini-2.0-flash"
		s.BaseURL = "http://localhost:8080/v1/"
		p, err := BuildProvider(s, "key")
		if err != nil {
			t.Fatalf("BuildProvider failed: %v", err)
		}
		if p.GetModel() != "gemini-2.0-flash" {
			t.Errorf("Expected model gemini-2.0-flash, got %q", p.GetModel())
		}
		if p.GetBaseURL() != "http://localhost:8080/v1" {
			t.Errorf("Expected trimmed base URL, got %q", p.GetBaseURL())
		}
	})
}
