package tools

import (
	"fmt"
	"strings"
)

// DuplicateToolError is returned by Register when the name is taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError is returned by Lookup when no tool has the name. The agent
// recovers from it by telling the model which tools exist.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s is not a valid tool, try one of [%s].", e.Name, strings.Join(e.Available, ", "))
}

// ToolExecutionError describes a failed invocation. It never escapes Invoke;
// it is attached to CallResult so callers can log or display it.
type ToolExecutionError struct {
	Tool     string
	Err      error
	TimedOut bool
	Panicked bool
}

func (e *ToolExecutionError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("tool %s timed out: %v", e.Tool, e.Err)
	case e.Panicked:
		return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
	}
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// MalformedOutputError describes a completion that matches neither the action
// nor the final answer form.
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return "could not parse LLM output: " + e.Reason
}
