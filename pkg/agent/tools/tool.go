package tools

import (
	"context"
)

// Tool is a capability the agent can invoke by name. The model sees Name and
// Description in the prompt and passes a single free-text argument.
//
// Execute may return an error; the registry turns it into an observation so a
// failing tool never aborts the run.
type Tool interface {
	// Name returns the unique identifier the model uses in "Action:" lines.
	Name() string

	// Description tells the model what the tool does and what input it expects.
	Description() string

	// Execute runs the tool on the raw "Action Input:" text.
	Execute(ctx context.Context, input string) (string, error)
}

// Labeled is implemented by tools that want a short noun in failure
// observations, e.g. "search" for "Critical error in search tool: ...".
type Labeled interface {
	Label() string
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	name        string
	description string
	label       string
	fn          func(ctx context.Context, input string) (string, error)
}

// NewFunc creates a Tool from a function.
func NewFunc(name, description string, fn func(ctx context.Context, input string) (string, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

// WithLabel sets the failure label and returns the tool.
func (f *Func) WithLabel(label string) *Func {
	f.label = label
	return f
}

// Name returns the tool name.
func (f *Func) Name() string { return f.name }

// Description returns the tool description.
func (f *Func) Description() string { return f.description }

// Label returns the failure label, defaulting to the name.
func (f *Func) Label() string {
	if f.label != "" {
		return f.label
	}
	return f.name
}

// Execute calls the wrapped function.
func (f *Func) Execute(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}

func labelOf(t Tool) string {
	if l, ok := t.(Labeled); ok && l.Label() != "" {
		return l.Label()
	}
	return t.Name()
}
