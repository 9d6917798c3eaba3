package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates the agent is invoking the LLM.
	EventTypeThought         AgentEventType = "thought"           // EventTypeThought carries the model's stated reasoning for a step.
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates the agent is calling a tool.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult indicates a tool produced an observation.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates a tool failed; the failure text is still an observation.
	EventTypeCorrection      AgentEventType = "correction"        // EventTypeCorrection indicates corrective text was fed back after a malformed or unknown-tool step.
	EventTypeTokenUsage      AgentEventType = "token_usage"       // EventTypeTokenUsage indicates token usage information from an LLM completion.
	EventTypeFinalAnswer     AgentEventType = "final_answer"      // EventTypeFinalAnswer indicates the run finished with an answer.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates the run failed.
	EventTypeTurnEnd         AgentEventType = "turn_end"          // EventTypeTurnEnd indicates the agent has finished processing the current run.
)

// AgentEvent represents an event emitted by the agent during execution.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// Error contains error information for error events.
	Error error

	// TokenUsage contains token usage information (for token usage events).
	TokenUsage *TokenUsage

	// Content holds text content (thought, correction, final answer).
	Content string

	// ToolName is the name of the tool being called (for tool events).
	ToolName string

	// ToolInput is the raw argument sent to the tool.
	ToolInput string

	// ToolOutput is the observation returned by the tool.
	ToolOutput string

	// Type indicates the kind of event.
	Type AgentEventType

	// Step is the zero-based model invocation index the event belongs to.
	Step int
}

// TokenUsage contains token usage statistics from an LLM API call.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the input/prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens in the generated completion/response.
	CompletionTokens int

	// TotalTokens is the total number of tokens used (prompt + completion).
	TotalTokens int

	// Estimated is true when the counts were computed locally rather than reported by the API.
	Estimated bool
}

func newEvent(t AgentEventType, step int) *AgentEvent {
	return &AgentEvent{
		Type:     t,
		Step:     step,
		Metadata: make(map[string]interface{}),
	}
}

// NewAPICallStartEvent creates an API call start event.
func NewAPICallStartEvent(step, promptTokens int) *AgentEvent {
	e := newEvent(EventTypeAPICallStart, step)
	e.Metadata["prompt_tokens"] = promptTokens
	return e
}

// NewThoughtEvent creates a thought event.
func NewThoughtEvent(step int, thought string) *AgentEvent {
	e := newEvent(EventTypeThought, step)
	e.Content = thought
	return e
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(step int, toolName, toolInput string) *AgentEvent {
	e := newEvent(EventTypeToolCall, step)
	e.ToolName = toolName
	e.ToolInput = toolInput
	return e
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(step int, toolName, output string) *AgentEvent {
	e := newEvent(EventTypeToolResult, step)
	e.ToolName = toolName
	e.ToolOutput = output
	return e
}

// NewToolResultErrorEvent creates a tool result error event. The rendered
// observation is kept alongside the error so renderers can show either.
func NewToolResultErrorEvent(step int, toolName, output string, err error) *AgentEvent {
	e := newEvent(EventTypeToolResultError, step)
	e.ToolName = toolName
	e.ToolOutput = output
	e.Error = err
	return e
}

// NewCorrectionEvent creates a correction event.
func NewCorrectionEvent(step int, correction string, cause error) *AgentEvent {
	e := newEvent(EventTypeCorrection, step)
	e.Content = correction
	e.Error = cause
	return e
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(step int, usage *TokenUsage) *AgentEvent {
	e := newEvent(EventTypeTokenUsage, step)
	e.TokenUsage = usage
	return e
}

// NewFinalAnswerEvent creates a final answer event.
func NewFinalAnswerEvent(step int, answer string) *AgentEvent {
	e := newEvent(EventTypeFinalAnswer, step)
	e.Content = answer
	return e
}

// NewErrorEvent creates an error event.
func NewErrorEvent(step int, err error) *AgentEvent {
	e := newEvent(EventTypeError, step)
	e.Error = err
	return e
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent(step int) *AgentEvent {
	return newEvent(EventTypeTurnEnd, step)
}

// WithMetadata adds metadata to an event and returns the event for chaining.
func (e *AgentEvent) WithMetadata(key string, value interface{}) *AgentEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsToolEvent returns true if this is a tool-related event.
func (e *AgentEvent) IsToolEvent() bool {
	return e.Type == EventTypeToolCall ||
		e.Type == EventTypeToolResult ||
		e.Type == EventTypeToolResultError
}

// IsErrorEvent returns true if this is an error event.
func (e *AgentEvent) IsErrorEvent() bool {
	return e.Type == EventTypeError
}

// IsTerminal returns true if the event ends a run.
func (e *AgentEvent) IsTerminal() bool {
	return e.Type == EventTypeFinalAnswer || e.Type == EventTypeError
}
