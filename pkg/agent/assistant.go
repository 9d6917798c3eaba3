package agent

import (
	"context"
	"time"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/types"
)

// runState is the position of a run in its lifecycle.
type runState int

const (
	stateRunning runState = iota
	stateFinished
	stateFailed
)

// run holds the mutable state of one Run call. It is confined to the
// goroutine that called Run.
type run struct {
	agent        *ReActAgent
	id           string
	handler      EventHandler
	systemPrompt string
	transcript   *memory.Transcript
	tracker      *usage.Tracker
	started      time.Time

	steps       int // successful tool invocations
	invocations int // model calls
	failures    int // consecutive malformed or unknown-tool steps

	answer  string
	thought string
}

// runAgentLoop iterates until the run finishes or fails.
// Limits are checked before each model call so a run with MaxSteps N
// performs exactly N tool invocations before failing.
func (r *run) runAgentLoop(ctx context.Context) (*Result, error) {
	cfg := r.agent.config

	for {
		// Check if context was canceled
		if err := ctx.Err(); err != nil {
			agentDebugLog.Infof("run %s canceled: %v", r.id, err)
			return nil, err
		}

		if r.steps >= cfg.MaxSteps {
			return nil, r.fail(ErrStepLimitExceeded, nil)
		}

		state, err := r.executeIteration(ctx)
		switch state {
		case stateFinished:
			return r.result(), nil
		case stateFailed:
			return nil, err
		}

		if r.failures >= cfg.MaxParseRetries {
			return nil, r.fail(ErrParseRetriesExhausted, nil)
		}
	}
}

// executeIteration performs one model call and acts on the parsed step.
func (r *run) executeIteration(ctx context.Context) (runState, error) {
	completion, err := r.callLLM(ctx)
	if err != nil {
		// Context cancellation - stop without a result
		if ctx.Err() != nil {
			return stateFailed, ctx.Err()
		}
		return stateFailed, r.fail(ErrLLMCall, err)
	}

	r.recordUsage(completion.Usage)

	switch step := tools.ParseStep(completion.Text).(type) {
	case *tools.FinishStep:
		r.finish(step)
		return stateFinished, nil
	case *tools.ActionStep:
		return r.executeAction(ctx, step)
	case *tools.MalformedStep:
		r.handleMalformed(step)
		return stateRunning, nil
	default:
		r.handleMalformed(&tools.MalformedStep{Raw: completion.Text, Reason: tools.ReasonNoMarkers})
		return stateRunning, nil
	}
}

// finish records the final answer.
func (r *run) finish(step *tools.FinishStep) {
	r.transcript.Append(memory.FinalTurn(step.Thought, step.Answer))
	r.answer = step.Answer
	r.thought = step.Thought

	if step.Thought != "" {
		r.emit(types.NewThoughtEvent(r.invocations, step.Thought))
	}
	r.emit(types.NewFinalAnswerEvent(r.invocations, step.Answer))
	r.emit(types.NewTurnEndEvent(r.invocations).WithMetadata("duration", time.Since(r.started)))

	if r.agent.session != nil {
		r.agent.session.Add(r.tracker.Report())
	}

	agentDebugLog.Infof("run %s finished: steps=%d model_calls=%d tokens=%d duration=%s",
		r.id, r.steps, r.invocations, r.tracker.Total(), time.Since(r.started))
}

// fail builds the RunError for a terminal failure and reports it.
func (r *run) fail(reason, cause error) *RunError {
	runErr := &RunError{
		RunID:         r.id,
		Reason:        reason,
		Cause:         cause,
		Steps:         r.steps,
		Invocations:   r.invocations,
		TranscriptLen: r.transcript.Len(),
		Usage:         r.tracker.Report(),
	}

	r.emit(types.NewErrorEvent(r.invocations, runErr))
	r.emit(types.NewTurnEndEvent(r.invocations).WithMetadata("duration", time.Since(r.started)))

	if r.agent.session != nil {
		r.agent.session.Add(runErr.Usage)
	}

	agentDebugLog.Errorf("run %s failed: %v", r.id, runErr)
	return runErr
}

func (r *run) result() *Result {
	return &Result{
		RunID:       r.id,
		Goal:        r.transcript.Goal(),
		Answer:      r.answer,
		Thought:     r.thought,
		Steps:       r.steps,
		Invocations: r.invocations,
		Usage:       r.tracker.Report(),
		Transcript:  r.transcript.Turns(),
		Duration:    time.Since(r.started),
	}
}

// emit delivers an event to the run's handler, if any.
func (r *run) emit(event *types.AgentEvent) {
	if r.handler == nil {
		return
	}
	r.handler(event.WithMetadata("run_id", r.id))
}
