package prompts

import (
	"fmt"
	"strings"
)

// ErrorType classifies a recoverable model mistake.
type ErrorType int

const (
	// ErrorTypeMalformedOutput means the completion matched no step form.
	ErrorTypeMalformedOutput ErrorType = iota
	// ErrorTypeUnknownTool means the Action named an unregistered tool.
	ErrorTypeUnknownTool
)

// ErrorRecoveryContext carries what the model needs to correct itself.
type ErrorRecoveryContext struct {
	Type           ErrorType
	ToolName       string
	Reason         string
	AvailableTools []string
}

// BuildErrorRecoveryMessage renders the observation fed back after a
// recoverable mistake.
func BuildErrorRecoveryMessage(ctx ErrorRecoveryContext) string {
	switch ctx.Type {
	case ErrorTypeUnknownTool:
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", ctx.ToolName, strings.Join(ctx.AvailableTools, ", "))
	default:
		return fmt.Sprintf(
			"Invalid Format: %s. Reply with 'Thought:' followed by either 'Action:' and 'Action Input:' lines, or a 'Final Answer:' line.",
			ctx.Reason,
		)
	}
}
