package headless

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/llm"
	"github.com/entrhq/newsagent/pkg/types"
)

// scriptedAgent returns canned outcomes keyed by goal.
type scriptedAgent struct {
	outcomes map[string]func(ctx context.Context, handler agent.EventHandler) (*agent.Result, error)
	goals    []string
}

func (s *scriptedAgent) Run(ctx context.Context, goal string, handler agent.EventHandler) (*agent.Result, error) {
	s.goals = append(s.goals, goal)
	if fn, ok := s.outcomes[goal]; ok {
		return fn(ctx, handler)
	}
	handler(types.NewToolCallEvent(1, "Search_News", goal))
	return &agent.Result{Goal: goal, Answer: "NEUTRAL (score: 0.00)", Steps: 1, Invocations: 2}, nil
}

func identity(topic string) string { return topic }

func testConfig(t *testing.T, topics ...string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Topics = topics
	cfg.Artifacts.OutputDir = filepath.Join(t.TempDir(), "artifacts")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no topics", func(c *Config) { c.Topics = nil }, "at least one topic"},
		{"blank topic", func(c *Config) { c.Topics = []string{"COP30", "  "} }, "topic 2 is empty"},
		{"zero timeout", func(c *Config) { c.Constraints.Timeout = 0 }, "timeout"},
		{"negative budget", func(c *Config) { c.Constraints.MaxTokens = -1 }, "max_tokens"},
		{"missing output dir", func(c *Config) { c.Artifacts.OutputDir = "" }, "output_dir"},
		{"artifacts disabled", func(c *Config) { c.Artifacts = ArtifactConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "COP30")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if _, err := NewExecutor(nil, testConfig(t, "COP30")); err == nil {
		t.Error("expected error for nil agent")
	}
	if _, err := NewExecutor(&scriptedAgent{}, testConfig(t)); err == nil {
		t.Error("expected error for empty topic list")
	}
}

func TestExecutorAllTopicsSucceed(t *testing.T) {
	ag := &scriptedAgent{}
	cfg := testConfig(t, "COP30", " Petrobras ")

	var observed int
	executor, err := NewExecutor(ag, cfg, WithEventObserver(func(*types.AgentEvent) { observed++ }))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	summary, err := executor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Status != statusSuccess {
		t.Errorf("expected status %s, got %s", statusSuccess, summary.Status)
	}
	if len(summary.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(summary.Runs))
	}
	if summary.Runs[1].Topic != "Petrobras" {
		t.Errorf("expected trimmed topic, got %q", summary.Runs[1].Topic)
	}
	if !strings.Contains(ag.goals[0], "'COP30'") {
		t.Errorf("expected topic wrapped in goal, got %q", ag.goals[0])
	}
	if summary.Metrics.ToolCalls != 2 || observed != 2 {
		t.Errorf("expected 2 tool calls observed, got metrics=%d observer=%d", summary.Metrics.ToolCalls, observed)
	}

	for _, name := range []string{"execution.json", "summary.md", "metrics.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Artifacts.OutputDir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.Artifacts.OutputDir, "metrics.json"))
	if err != nil {
		t.Fatalf("failed to read metrics.json: %v", err)
	}
	var metrics ExecutionMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		t.Fatalf("failed to decode metrics.json: %v", err)
	}
	if metrics.Succeeded != 2 || metrics.Topics != 2 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}

	md, err := os.ReadFile(filepath.Join(cfg.Artifacts.OutputDir, "summary.md"))
	if err != nil {
		t.Fatalf("failed to read summary.md: %v", err)
	}
	if !strings.Contains(string(md), "### COP30") {
		t.Errorf("summary.md missing topic section:\n%s", md)
	}
}

func TestExecutorPartialAndTotalFailure(t *testing.T) {
	failing := func(context.Context, agent.EventHandler) (*agent.Result, error) {
		return nil, &agent.RunError{Reason: agent.ErrStepLimitExceeded, Steps: 6, Invocations: 7}
	}

	t.Run("partial success", func(t *testing.T) {
		ag := &scriptedAgent{outcomes: map[string]func(context.Context, agent.EventHandler) (*agent.Result, error){
			"bad": failing,
		}}
		executor, err := NewExecutor(ag, testConfig(t, "good", "bad"), WithGoalTemplate(identity))
		if err != nil {
			t.Fatalf("NewExecutor failed: %v", err)
		}

		summary, err := executor.Run(context.Background())
		if err != nil {
			t.Fatalf("partial success should not return an error, got %v", err)
		}
		if summary.Status != statusPartialSuccess {
			t.Errorf("expected %s, got %s", statusPartialSuccess, summary.Status)
		}
		bad := summary.Runs[1]
		if bad.Status != statusFailed || bad.Steps != 6 || bad.ModelCalls != 7 {
			t.Errorf("unexpected failed run record: %+v", bad)
		}
		if !strings.Contains(bad.Error, "step limit exceeded") {
			t.Errorf("expected step limit error, got %q", bad.Error)
		}
	})

	t.Run("all failed", func(t *testing.T) {
		ag := &scriptedAgent{outcomes: map[string]func(context.Context, agent.EventHandler) (*agent.Result, error){
			"bad": failing,
		}}
		cfg := testConfig(t, "bad")
		cfg.Artifacts.Enabled = false
		executor, err := NewExecutor(ag, cfg, WithGoalTemplate(identity))
		if err != nil {
			t.Fatalf("NewExecutor failed: %v", err)
		}

		summary, err := executor.Run(context.Background())
		if err == nil {
			t.Fatal("expected error when every topic fails")
		}
		if summary.Status != statusFailed {
			t.Errorf("expected %s, got %s", statusFailed, summary.Status)
		}
		if _, statErr := os.Stat(cfg.Artifacts.OutputDir); !os.IsNotExist(statErr) {
			t.Error("artifacts should not be written when disabled")
		}
	})
}

func TestExecutorRecoversFromPanic(t *testing.T) {
	ag := &scriptedAgent{outcomes: map[string]func(context.Context, agent.EventHandler) (*agent.Result, error){
		"COP30": func(context.Context, agent.EventHandler) (*agent.Result, error) {
			panic("observer exploded")
		},
	}}
	cfg := testConfig(t, "COP30", "Petrobras")
	cfg.Artifacts.Enabled = false
	executor, err := NewExecutor(ag, cfg, WithGoalTemplate(identity))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	summary, err := executor.Run(context.Background())
	if err != nil {
		t.Fatalf("one panicking topic should not fail the batch, got %v", err)
	}
	if len(ag.goals) != 2 {
		t.Fatalf("expected both topics to run, got %v", ag.goals)
	}
	if summary.Status != statusPartialSuccess {
		t.Errorf("expected %s, got %s", statusPartialSuccess, summary.Status)
	}
	if got := summary.Runs[0]; got.Status != statusFailed || !strings.Contains(got.Error, "run panicked: observer exploded") {
		t.Errorf("unexpected record for panicking topic: %+v", got)
	}
	if got := summary.Runs[1]; got.Status != statusSuccess {
		t.Errorf("second topic should succeed, got %+v", got)
	}
}

func TestExecutorTopicTimeout(t *testing.T) {
	ag := &scriptedAgent{outcomes: map[string]func(context.Context, agent.EventHandler) (*agent.Result, error){
		"slow": func(ctx context.Context, _ agent.EventHandler) (*agent.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	cfg := testConfig(t, "slow", "fast")
	cfg.Constraints.Timeout = 20 * time.Millisecond

	executor, err := NewExecutor(ag, cfg, WithGoalTemplate(identity))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	summary, err := executor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Runs[0].Status != statusFailed || !strings.Contains(summary.Runs[0].Error, "timeout") {
		t.Errorf("expected timeout failure, got %+v", summary.Runs[0])
	}
	if summary.Runs[1].Status != statusSuccess {
		t.Errorf("next topic should still run, got %+v", summary.Runs[1])
	}
}

func TestExecutorTokenBudget(t *testing.T) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewFunc("Search_News", "search", func(context.Context, string) (string, error) {
		return "- [2025-11-10] COP30 opens (reuters.com): Strong start.", nil
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	provider := llm.NewMockProvider(llm.MockReply{
		Text:  "Action: Search_News\nAction Input: COP30",
		Usage: &types.TokenUsage{TotalTokens: 400},
	}).Repeat()

	ag, err := agent.NewReActAgent(provider, registry)
	if err != nil {
		t.Fatalf("NewReActAgent failed: %v", err)
	}

	cfg := testConfig(t, "COP30")
	cfg.Constraints.MaxTokens = 1000
	executor, err := NewExecutor(ag, cfg)
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	summary, err := executor.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when the only topic blows its budget")
	}

	run := summary.Runs[0]
	if run.Status != statusFailed {
		t.Errorf("expected failed status, got %s", run.Status)
	}
	if !strings.Contains(run.Error, ErrTokenBudgetExceeded.Error()) {
		t.Errorf("expected budget error, got %q", run.Error)
	}
	if run.TokensUsed != 1200 {
		t.Errorf("expected 1200 tokens recorded, got %d", run.TokensUsed)
	}
	if provider.Calls() != 3 {
		t.Errorf("expected the run to stop after the third call, got %d calls", provider.Calls())
	}
}

func TestExecutorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ag := &scriptedAgent{outcomes: map[string]func(context.Context, agent.EventHandler) (*agent.Result, error){
		"first": func(ctx context.Context, _ agent.EventHandler) (*agent.Result, error) {
			cancel()
			return nil, ctx.Err()
		},
	}}

	executor, err := NewExecutor(ag, testConfig(t, "first", "second"), WithGoalTemplate(identity))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	summary, err := executor.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Status != statusCanceled {
		t.Errorf("expected %s, got %s", statusCanceled, summary.Status)
	}
	if len(ag.goals) != 1 || summary.Metrics.Skipped != 1 {
		t.Errorf("second topic should be skipped: goals=%v metrics=%+v", ag.goals, summary.Metrics)
	}
}
