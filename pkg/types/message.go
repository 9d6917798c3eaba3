package types

// MessageRole identifies the author of a chat message sent to the LLM.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem carries the instruction preamble.
	RoleUser      MessageRole = "user"      // RoleUser carries the goal and observations.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries model completions.
)

// Message is a single chat message exchanged with an LLM provider.
type Message struct {
	Role    MessageRole
	Content string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	Provider          string
	Name              string
	SupportsStreaming bool
	MaxTokens         int
	Metadata          map[string]interface{}
}
