// Package agent runs the ReAct loop: it alternates model calls and tool
// invocations over a per-run transcript until the model gives a final answer
// or a limit is reached.
//
// A run is a pure function of its goal and the collaborators supplied at
// construction:
//
//	registry := tools.NewRegistry()
//	_ = registry.Register(news.NewSearchTool(...))
//	ag, err := agent.NewReActAgent(provider, registry, agent.WithMaxSteps(6))
//	result, err := ag.Run(ctx, "Search for the latest news about COP30", nil)
//
// Subpackages:
//   - tools: tool registry and the ReAct completion parser
//   - memory: the per-run transcript
//   - prompts: system prompt and recovery messages
//   - usage: per-step token accounting
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/types"
)

// Agent answers a goal by reasoning and acting with tools.
type Agent interface {
	// Run executes one goal to completion. The handler, when not nil,
	// receives progress events synchronously from the run's goroutine.
	//
	// On success the Result holds the final answer. A run that hits a limit
	// or a fatal model error returns a *RunError. Cancelling ctx returns
	// ctx.Err() and no result.
	Run(ctx context.Context, goal string, handler EventHandler) (*Result, error)
}

// EventHandler receives events emitted during a run.
type EventHandler func(event *types.AgentEvent)

// LoopConfig bounds a run.
type LoopConfig struct {
	// MaxSteps is the number of successful tool invocations allowed.
	MaxSteps int
	// MaxParseRetries is the number of consecutive malformed or unknown-tool
	// steps tolerated before the run fails.
	MaxParseRetries int
	// LLMTimeout bounds each model call. Zero means no bound.
	LLMTimeout time.Duration
}

// Default loop limits.
const (
	DefaultMaxSteps        = 6
	DefaultMaxParseRetries = 3
	DefaultLLMTimeout      = 60 * time.Second
)

// DefaultLoopConfig returns the default limits.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxSteps:        DefaultMaxSteps,
		MaxParseRetries: DefaultMaxParseRetries,
		LLMTimeout:      DefaultLLMTimeout,
	}
}

// Validate checks that the limits are usable.
func (c LoopConfig) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("max steps must be at least 1, got %d", c.MaxSteps)
	}
	if c.MaxParseRetries < 1 {
		return fmt.Errorf("max parse retries must be at least 1, got %d", c.MaxParseRetries)
	}
	if c.LLMTimeout < 0 {
		return fmt.Errorf("llm timeout cannot be negative, got %s", c.LLMTimeout)
	}
	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	RunID   string
	Goal    string
	Answer  string
	Thought string
	// Steps is the number of successful tool invocations.
	Steps int
	// Invocations is the number of model calls.
	Invocations int
	Usage       []usage.Record
	Transcript  []memory.Turn
	Duration    time.Duration
}

// TotalTokens sums the usage report.
func (r *Result) TotalTokens() int {
	return usage.Sum(r.Usage)
}
