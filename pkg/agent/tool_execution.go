package agent

import (
	"context"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/prompts"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/types"
)

// executeAction records the model's action, runs the tool and appends the
// observation. An unknown tool name is a recoverable mistake.
func (r *run) executeAction(ctx context.Context, step *tools.ActionStep) (runState, error) {
	r.transcript.Append(memory.ActionTurn(step.Thought, step.Tool, step.Input))
	if step.Thought != "" {
		r.emit(types.NewThoughtEvent(r.invocations, step.Thought))
	}

	tool, ok := r.lookupTool(step.Tool)
	if !ok {
		return stateRunning, nil
	}

	r.emit(types.NewToolCallEvent(r.invocations, tool.Name(), step.Input))
	agentDebugLog.Debugf("run %s invoking %s with %q", r.id, tool.Name(), step.Input)

	result := r.agent.registry.Call(ctx, tool, step.Input)

	// A canceled run discards whatever the tool produced
	if ctx.Err() != nil {
		return stateFailed, ctx.Err()
	}

	r.transcript.Append(memory.ObservationTurn(tool.Name(), result.Observation))
	r.steps++
	r.failures = 0

	if result.Failed() {
		agentDebugLog.Warnf("run %s: %v", r.id, result.Failure)
		r.emit(types.NewToolResultErrorEvent(r.invocations, tool.Name(), result.Observation, result.Failure).
			WithMetadata("duration", result.Duration))
	} else {
		r.emit(types.NewToolResultEvent(r.invocations, tool.Name(), result.Observation).
			WithMetadata("duration", result.Duration))
	}

	return stateRunning, nil
}

// lookupTool retrieves a tool by name. A miss appends the recovery
// observation and counts as a failed step.
func (r *run) lookupTool(name string) (tools.Tool, bool) {
	tool, err := r.agent.registry.Lookup(name)
	if err != nil {
		correction := prompts.BuildErrorRecoveryMessage(prompts.ErrorRecoveryContext{
			Type:           prompts.ErrorTypeUnknownTool,
			ToolName:       name,
			AvailableTools: r.agent.registry.Names(),
		})
		r.correct(correction, err)
		return nil, false
	}
	return tool, true
}

// handleMalformed keeps the raw output in the transcript and tells the model
// what the parser expected.
func (r *run) handleMalformed(step *tools.MalformedStep) {
	r.transcript.Append(memory.MalformedTurn(step.Raw))

	correction := prompts.BuildErrorRecoveryMessage(prompts.ErrorRecoveryContext{
		Type:   prompts.ErrorTypeMalformedOutput,
		Reason: step.Reason,
	})
	r.correct(correction, step.Err())
}

func (r *run) correct(correction string, cause error) {
	r.transcript.Append(memory.CorrectionTurn(correction))
	r.failures++
	agentDebugLog.Warnf("run %s step %d needs correction (%d consecutive): %v", r.id, r.invocations, r.failures, cause)
	r.emit(types.NewCorrectionEvent(r.invocations, correction, cause))
}
