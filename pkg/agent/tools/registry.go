// Package tools holds the tool registry and the parser for ReAct-formatted
// completions.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidTool is returned by Register for nil tools or empty names.
var ErrInvalidTool = errors.New("invalid tool")

// CallResult is the outcome of one invocation. Observation is never empty.
type CallResult struct {
	Observation string
	Failure     *ToolExecutionError
	Duration    time.Duration
}

// Failed reports whether the observation is a rendered failure.
func (r CallResult) Failed() bool {
	return r.Failure != nil
}

// Registry maps tool names to tools. It is safe for concurrent use and may be
// shared by independent runs as long as the tools themselves are reentrant.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	timeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCallTimeout bounds every invocation. A timed-out call becomes a failure
// observation. Zero disables the bound.
func WithCallTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool. Names are unique; a second tool with the same name
// fails with *DuplicateToolError.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: tool cannot be nil", ErrInvalidTool)
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidTool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the tool with exactly this name, or *UnknownToolError.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name, Available: r.namesLocked()}
	}
	return tool, nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke looks up and executes a tool. The only error it returns is
// *UnknownToolError; tool failures come back as observation text.
func (r *Registry) Invoke(ctx context.Context, name, input string) (string, error) {
	tool, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return r.Call(ctx, tool, input).Observation, nil
}

type callOutcome struct {
	out string
	err error
	pan bool
}

// Call executes a tool that was already looked up. Errors, panics and
// timeouts are rendered as "Critical error in <label> tool: <detail>".
func (r *Registry) Call(ctx context.Context, tool Tool, input string) CallResult {
	start := time.Now()

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	done := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- callOutcome{err: fmt.Errorf("%v", p), pan: true}
			}
		}()
		out, err := tool.Execute(callCtx, input)
		done <- callOutcome{out: out, err: err}
	}()

	out, failure := awaitCall(ctx, callCtx, tool.Name(), done)

	result := CallResult{Observation: out, Duration: time.Since(start)}
	if failure != nil {
		result.Failure = failure
		result.Observation = fmt.Sprintf("Critical error in %s tool: %s", labelOf(tool), failureDetail(failure))
	} else if result.Observation == "" {
		result.Observation = fmt.Sprintf("%s returned no output.", tool.Name())
	}
	return result
}

// awaitCall waits for the tool or the call deadline. A result that is already
// waiting when the deadline fires still counts as the result.
func awaitCall(ctx, callCtx context.Context, name string, done <-chan callOutcome) (string, *ToolExecutionError) {
	select {
	case o := <-done:
		return outcomeOf(ctx, name, o)
	case <-callCtx.Done():
		select {
		case o := <-done:
			return outcomeOf(ctx, name, o)
		default:
		}
		return "", &ToolExecutionError{
			Tool:     name,
			Err:      callCtx.Err(),
			TimedOut: ctx.Err() == nil,
		}
	}
}

func outcomeOf(ctx context.Context, name string, o callOutcome) (string, *ToolExecutionError) {
	if o.err == nil {
		return o.out, nil
	}
	return o.out, &ToolExecutionError{
		Tool:     name,
		Err:      o.err,
		Panicked: o.pan,
		TimedOut: errors.Is(o.err, context.DeadlineExceeded) && ctx.Err() == nil,
	}
}

func failureDetail(f *ToolExecutionError) string {
	if f.TimedOut {
		return "timed out before producing a result"
	}
	return f.Err.Error()
}
