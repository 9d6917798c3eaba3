package prompts

import (
	"fmt"
	"strings"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/types"
)

// PromptBuilder constructs the system prompt for a ReAct run
type PromptBuilder struct {
	tools              []tools.Tool
	customInstructions string
}

// NewPromptBuilder creates a new prompt builder with default settings
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		tools: []tools.Tool{},
	}
}

// WithTools sets the available tools for the agent
func (pb *PromptBuilder) WithTools(toolsList []tools.Tool) *PromptBuilder {
	pb.tools = toolsList
	return pb
}

// WithCustomInstructions adds user-provided instructions ahead of the
// built-in sections
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.customInstructions = instructions
	return pb
}

// Build constructs the complete system prompt by assembling all sections
func (pb *PromptBuilder) Build() string {
	var builder strings.Builder

	if pb.customInstructions != "" {
		builder.WriteString(strings.TrimSpace(pb.customInstructions))
		builder.WriteString("\n\n")
	}

	builder.WriteString(SystemCapabilitiesPrompt)
	builder.WriteString("\n\n")

	builder.WriteString(AgentLoopPrompt)
	builder.WriteString("\n\n")

	builder.WriteString("You have access to the following tools:\n\n")
	builder.WriteString(FormatToolList(pb.tools))
	builder.WriteString("\n\n")

	builder.WriteString(fmt.Sprintf(FormatPrompt, ToolNames(pb.tools)))
	builder.WriteString("\n\n")

	builder.WriteString(ToolUseRulesPrompt)
	builder.WriteString("\n\n")

	builder.WriteString(BeginPrompt)

	return builder.String()
}

// FormatToolList renders one "name: description" line per tool.
func FormatToolList(toolsList []tools.Tool) string {
	if len(toolsList) == 0 {
		return "(no tools available)"
	}
	lines := make([]string, len(toolsList))
	for i, t := range toolsList {
		lines[i] = fmt.Sprintf("%s: %s", t.Name(), strings.TrimSpace(t.Description()))
	}
	return strings.Join(lines, "\n")
}

// ToolNames returns the comma-separated tool names for the format section.
func ToolNames(toolsList []tools.Tool) string {
	names := make([]string, len(toolsList))
	for i, t := range toolsList {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

// BuildMessages renders a transcript as a chat conversation: the goal and
// every observation become user messages, every model step an assistant
// message.
func BuildMessages(systemPrompt string, transcript *memory.Transcript) []*types.Message {
	turns := transcript.Turns()
	messages := make([]*types.Message, 0, len(turns)+1)

	messages = append(messages, types.NewSystemMessage(systemPrompt))

	for _, turn := range turns {
		if turn.IsModelTurn() {
			messages = append(messages, types.NewAssistantMessage(turn.Render()))
		} else {
			messages = append(messages, types.NewUserMessage(turn.Render()))
		}
	}

	return messages
}
