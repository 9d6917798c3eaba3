package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/prompts"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/llm"
	"github.com/entrhq/newsagent/pkg/llm/tokenizer"
	"github.com/entrhq/newsagent/pkg/logging"
)

var agentDebugLog *logging.Logger

func init() {
	var err error
	agentDebugLog, err = logging.NewLogger("agent")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		agentDebugLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// ReActAgent is the Agent implementation driving the
// Thought/Action/Observation loop. It holds no per-run state, so one agent
// can serve several concurrent runs if its tools allow it.
type ReActAgent struct {
	provider           llm.Provider
	registry           *tools.Registry
	config             LoopConfig
	customInstructions string

	// Token accounting
	tokenizer     *tokenizer.Tokenizer
	estimateUsage bool
	session       *usage.Session
}

// AgentOption is a function that configures an agent
type AgentOption func(*ReActAgent)

// WithLoopConfig replaces all loop limits
func WithLoopConfig(cfg LoopConfig) AgentOption {
	return func(a *ReActAgent) {
		a.config = cfg
	}
}

// WithMaxSteps sets the number of tool invocations a run may make
func WithMaxSteps(max int) AgentOption {
	return func(a *ReActAgent) {
		a.config.MaxSteps = max
	}
}

// WithMaxParseRetries sets how many consecutive malformed steps are tolerated
func WithMaxParseRetries(max int) AgentOption {
	return func(a *ReActAgent) {
		a.config.MaxParseRetries = max
	}
}

// WithLLMTimeout bounds each model call
func WithLLMTimeout(timeout time.Duration) AgentOption {
	return func(a *ReActAgent) {
		a.config.LLMTimeout = timeout
	}
}

// WithCustomInstructions prepends user instructions to the system prompt
func WithCustomInstructions(instructions string) AgentOption {
	return func(a *ReActAgent) {
		a.customInstructions = instructions
	}
}

// WithTokenizer sets the tokenizer used to measure prompts
func WithTokenizer(tok *tokenizer.Tokenizer) AgentOption {
	return func(a *ReActAgent) {
		a.tokenizer = tok
	}
}

// WithUsageEstimation makes the agent estimate usage with its tokenizer when
// the provider reports none. Estimated records are flagged as such.
func WithUsageEstimation(enabled bool) AgentOption {
	return func(a *ReActAgent) {
		a.estimateUsage = enabled
	}
}

// WithUsageSession folds every run's usage report into a shared session
func WithUsageSession(session *usage.Session) AgentOption {
	return func(a *ReActAgent) {
		a.session = session
	}
}

// NewReActAgent creates an agent over a provider and a tool registry.
func NewReActAgent(provider llm.Provider, registry *tools.Registry, opts ...AgentOption) (*ReActAgent, error) {
	if provider == nil {
		return nil, errors.New("llm provider is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	a := &ReActAgent{
		provider: provider,
		registry: registry,
		config:   DefaultLoopConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	if a.estimateUsage && a.tokenizer == nil {
		return nil, errors.New("usage estimation requires a tokenizer")
	}

	return a, nil
}

// Config returns the loop limits in effect.
func (a *ReActAgent) Config() LoopConfig {
	return a.config
}

// Run executes one goal. See Agent.
func (a *ReActAgent) Run(ctx context.Context, goal string, handler EventHandler) (*Result, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}

	r := &run{
		agent:      a,
		id:         uuid.NewString(),
		handler:    handler,
		transcript: memory.NewTranscript(goal),
		tracker:    usage.NewTracker(),
		started:    time.Now(),
	}
	r.systemPrompt = a.buildSystemPrompt()

	agentDebugLog.Infof("run %s started: goal=%q max_steps=%d max_parse_retries=%d",
		r.id, goal, a.config.MaxSteps, a.config.MaxParseRetries)

	return r.runAgentLoop(ctx)
}

// buildSystemPrompt renders the prompt for the registry's current tools
func (a *ReActAgent) buildSystemPrompt() string {
	builder := prompts.NewPromptBuilder().
		WithTools(a.registry.Tools())

	if a.customInstructions != "" {
		builder.WithCustomInstructions(a.customInstructions)
	}

	return builder.Build()
}
