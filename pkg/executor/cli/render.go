package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/types"
)

// handleEvent renders a single event and forwards it to the observer.
func (e *Executor) handleEvent(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeThought:
		e.handleThought(event.Content)
	case types.EventTypeToolCall:
		e.handleToolCall(event.ToolName, event.ToolInput)
	case types.EventTypeToolResult:
		e.handleToolResult(event.ToolOutput)
	case types.EventTypeToolResultError:
		e.handleToolResultError(event.ToolOutput)
	case types.EventTypeCorrection:
		e.handleCorrection(event.Content)
	case types.EventTypeTokenUsage:
		e.handleTokenUsage(event.TokenUsage)
	case types.EventTypeAPICallStart, types.EventTypeFinalAnswer, types.EventTypeError, types.EventTypeTurnEnd:
		// The verdict and failures are printed once Run returns
	}

	if e.observer != nil {
		e.observer(event)
	}
}

func (e *Executor) handleThought(thought string) {
	if e.verbose {
		fmt.Fprintln(e.writer, e.styles.thought.Render("Thought: "+thought))
	}
}

func (e *Executor) handleToolCall(name, input string) {
	if e.verbose {
		fmt.Fprintln(e.writer, e.styles.action.Render("Action: "+name))
		fmt.Fprintln(e.writer, e.styles.action.Render("Action Input: "+input))
	}
}

func (e *Executor) handleToolResult(output string) {
	if e.verbose {
		fmt.Fprintln(e.writer, e.styles.result.Render("Observation: "+output))
	}
}

func (e *Executor) handleToolResultError(output string) {
	if e.verbose {
		fmt.Fprintln(e.writer, e.styles.failure.Render("Observation: "+output))
	}
}

func (e *Executor) handleCorrection(correction string) {
	if e.verbose {
		fmt.Fprintln(e.writer, e.styles.failure.Render(correction))
	}
}

func (e *Executor) handleTokenUsage(u *types.TokenUsage) {
	if !e.showTokens || u == nil {
		return
	}
	line := fmt.Sprintf("[TOKEN MONITOR] Total tokens used in this step: %d", u.TotalTokens)
	if u.Estimated {
		line += " (estimated)"
	}
	fmt.Fprintln(e.writer, e.styles.tokens.Render(line))
}

func (e *Executor) printResult(result *agent.Result) {
	fmt.Fprintln(e.writer)
	fmt.Fprintln(e.writer, e.verdictStyle(result.Answer).Render("Final Answer: "+result.Answer))
	fmt.Fprintln(e.writer, e.styles.tips.Render(fmt.Sprintf("%d tool calls, %d model calls, %d tokens in %s",
		result.Steps, result.Invocations, result.TotalTokens(), result.Duration.Round(time.Millisecond))))
	fmt.Fprintln(e.writer)
}

func (e *Executor) printFailure(err error) {
	fmt.Fprintln(e.writer)
	fmt.Fprintln(e.writer, e.styles.failure.Render("Run failed: "+err.Error()))

	var runErr *agent.RunError
	if errors.As(err, &runErr) {
		fmt.Fprintln(e.writer, e.styles.tips.Render(fmt.Sprintf("%d transcript entries, %d tokens used before the failure",
			runErr.TranscriptLen, runErr.TotalTokens())))
	}
	fmt.Fprintln(e.writer)
}

func (e *Executor) verdictStyle(answer string) lipgloss.Style {
	upper := strings.ToUpper(answer)
	switch {
	case strings.Contains(upper, "POSITIVE"):
		return e.styles.positive
	case strings.Contains(upper, "NEGATIVE"):
		return e.styles.negative
	default:
		return e.styles.verdict
	}
}
