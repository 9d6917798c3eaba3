package agent

import (
	"errors"
	"fmt"

	"github.com/entrhq/newsagent/pkg/agent/usage"
)

var (
	// ErrStepLimitExceeded means the run used every allowed tool step
	// without a final answer.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrParseRetriesExhausted means the model produced too many consecutive
	// malformed or unknown-tool steps.
	ErrParseRetriesExhausted = errors.New("parse retries exhausted")

	// ErrLLMCall means a model call failed or timed out.
	ErrLLMCall = errors.New("llm call failed")

	// ErrEmptyGoal is returned by Run for a blank goal.
	ErrEmptyGoal = errors.New("goal cannot be empty")
)

// RunError is returned when a run fails. It carries the partial accounting so
// callers can still report token usage.
type RunError struct {
	RunID string
	// Reason is one of the Err* sentinels.
	Reason error
	// Cause is the underlying error, if any.
	Cause         error
	Steps         int
	Invocations   int
	TranscriptLen int
	Usage         []usage.Record
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("run failed after %d steps and %d model calls: %v", e.Steps, e.Invocations, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the reason and the cause to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	errs := []error{e.Reason}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// TotalTokens sums the usage recorded before the failure.
func (e *RunError) TotalTokens() int {
	return usage.Sum(e.Usage)
}
