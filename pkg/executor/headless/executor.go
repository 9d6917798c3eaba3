package headless

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/agent/prompts"
	"github.com/entrhq/newsagent/pkg/logging"
	"github.com/entrhq/newsagent/pkg/types"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
	statusCanceled       = "canceled"
)

// ErrTokenBudgetExceeded marks a topic stopped by ConstraintConfig.MaxTokens.
var ErrTokenBudgetExceeded = errors.New("token budget exceeded")

var headlessLog *logging.Logger

func init() {
	var err error
	headlessLog, err = logging.NewLogger("headless")
	if err != nil {
		headlessLog.Warnf("Failed to initialize headless logger, using stderr fallback: %v", err)
	}
}

// Executor implements the headless batch executor
type Executor struct {
	agent          agent.Agent
	config         *Config
	artifactWriter *ArtifactWriter
	observer       agent.EventHandler
	goalFor        func(topic string) string

	summary *ExecutionSummary
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithEventObserver receives every event from every topic's run.
func WithEventObserver(h agent.EventHandler) ExecutorOption {
	return func(e *Executor) {
		e.observer = h
	}
}

// WithGoalTemplate replaces the topic-to-goal wrapper.
func WithGoalTemplate(fn func(topic string) string) ExecutorOption {
	return func(e *Executor) {
		e.goalFor = fn
	}
}

// NewExecutor creates a new headless executor with a pre-configured agent
func NewExecutor(ag agent.Agent, config *Config, opts ...ExecutorOption) (*Executor, error) {
	if ag == nil {
		return nil, errors.New("agent is required")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Executor{
		agent:          ag,
		config:         config,
		artifactWriter: NewArtifactWriter(config.Artifacts.OutputDir),
		goalFor:        prompts.BuildTopicGoal,
		summary: &ExecutionSummary{
			Topics: append([]string(nil), config.Topics...),
			Status: "running",
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run analyzes every topic and returns the summary. The error is non-nil when
// no topic succeeded or ctx was canceled; the summary is returned either way.
func (e *Executor) Run(ctx context.Context) (*ExecutionSummary, error) {
	e.summary.StartTime = time.Now()
	headlessLog.Infof("starting batch of %d topics", len(e.config.Topics))

	for _, topic := range e.config.Topics {
		if ctx.Err() != nil {
			break
		}
		e.summary.Runs = append(e.summary.Runs, e.runTopic(ctx, strings.TrimSpace(topic)))
	}

	return e.summary, e.finalize(ctx)
}

// runTopic runs one topic under the per-topic timeout and token budget.
func (e *Executor) runTopic(ctx context.Context, topic string) TopicRun {
	record := TopicRun{Topic: topic, Goal: e.goalFor(topic)}
	started := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, e.config.Constraints.Timeout)
	defer cancel()

	budget := &tokenBudget{limit: e.config.Constraints.MaxTokens, cancel: cancel}
	handler := func(event *types.AgentEvent) {
		switch event.Type {
		case types.EventTypeToolCall:
			record.ToolCalls++
		case types.EventTypeTokenUsage:
			budget.record(event.TokenUsage)
		}
		if e.config.Verbose {
			headlessLog.Debugf("topic %q event %s step %d", topic, event.Type, event.Step)
		}
		if e.observer != nil {
			e.observer(event)
		}
	}

	result, err := e.runAgent(runCtx, record.Goal, handler)
	record.Duration = time.Since(started)

	switch {
	case err == nil:
		record.Status = statusSuccess
		record.Answer = result.Answer
		record.Steps = result.Steps
		record.ModelCalls = result.Invocations
		record.TokensUsed = result.TotalTokens()
	case budget.exceeded:
		record.Status = statusFailed
		record.Error = fmt.Sprintf("%v: %d tokens used, budget %d", ErrTokenBudgetExceeded, budget.used, budget.limit)
		record.TokensUsed = budget.used
	case ctx.Err() != nil:
		record.Status = statusCanceled
		record.Error = ctx.Err().Error()
		record.TokensUsed = budget.used
	case errors.Is(err, context.DeadlineExceeded) && runCtx.Err() != nil:
		record.Status = statusFailed
		record.Error = fmt.Sprintf("topic timeout of %s exceeded", e.config.Constraints.Timeout)
		record.TokensUsed = budget.used
	default:
		record.Status = statusFailed
		record.Error = err.Error()
		var runErr *agent.RunError
		if errors.As(err, &runErr) {
			record.Steps = runErr.Steps
			record.ModelCalls = runErr.Invocations
			record.TokensUsed = runErr.TotalTokens()
		} else {
			record.TokensUsed = budget.used
		}
	}

	headlessLog.Infof("topic %q: %s (%d tokens, %s)", topic, record.Status, record.TokensUsed, record.Duration)
	return record
}

// runAgent turns a panic inside the agent into a failed run so the batch
// moves on to the next topic.
func (e *Executor) runAgent(ctx context.Context, goal string, handler agent.EventHandler) (result *agent.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			headlessLog.Errorf("run for goal %q panicked: %v", goal, p)
			result, err = nil, fmt.Errorf("run panicked: %v", p)
		}
	}()
	return e.agent.Run(ctx, goal, handler)
}

// tokenBudget cancels a run once its usage passes the limit.
type tokenBudget struct {
	limit    int
	used     int
	exceeded bool
	cancel   context.CancelFunc
}

func (b *tokenBudget) record(u *types.TokenUsage) {
	if u == nil {
		return
	}
	b.used += u.TotalTokens
	if b.limit > 0 && b.used > b.limit && !b.exceeded {
		b.exceeded = true
		headlessLog.Warnf("token budget exceeded: %d > %d", b.used, b.limit)
		b.cancel()
	}
}

// finalize completes the execution and generates artifacts
func (e *Executor) finalize(ctx context.Context) error {
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.summary.StartTime)

	metrics := ExecutionMetrics{Topics: len(e.config.Topics)}
	for _, r := range e.summary.Runs {
		switch r.Status {
		case statusSuccess:
			metrics.Succeeded++
		default:
			metrics.Failed++
		}
		metrics.TokensUsed += r.TokensUsed
		metrics.ModelCalls += r.ModelCalls
		metrics.ToolCalls += r.ToolCalls
	}
	metrics.Skipped = metrics.Topics - len(e.summary.Runs)
	e.summary.Metrics = metrics

	var err error
	switch {
	case ctx.Err() != nil:
		e.summary.Status = statusCanceled
		e.summary.Error = ctx.Err().Error()
		err = ctx.Err()
	case metrics.Failed == 0:
		e.summary.Status = statusSuccess
	case metrics.Succeeded > 0:
		e.summary.Status = statusPartialSuccess
	default:
		e.summary.Status = statusFailed
		e.summary.Error = fmt.Sprintf("all %d topics failed", metrics.Failed)
		err = fmt.Errorf("execution failed: %s", e.summary.Error)
	}

	// Generate artifacts if enabled
	if e.config.Artifacts.Enabled {
		if writeErr := e.artifactWriter.WriteAll(e.summary); writeErr != nil {
			headlessLog.Warnf("failed to write artifacts: %v", writeErr)
		} else {
			headlessLog.Infof("artifacts written to %s", e.config.Artifacts.OutputDir)
		}
	}

	headlessLog.Infof("batch completed: %s (duration: %s)", e.summary.Status, e.summary.Duration)
	return err
}
