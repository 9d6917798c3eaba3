package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/types"
)

func stubTool(name, description string) tools.Tool {
	return tools.NewFunc(name, description, func(context.Context, string) (string, error) {
		return "", nil
	})
}

func TestFormatToolList(t *testing.T) {
	t.Run("MultipleTools", func(t *testing.T) {
		list := []tools.Tool{
			stubTool("Search_News", "Finds recent news."),
			stubTool("Analyze_Sentiment", "Scores text polarity."),
		}

		formatted := FormatToolList(list)

		if formatted != "Search_News: Finds recent news.\nAnalyze_Sentiment: Scores text polarity." {
			t.Errorf("unexpected tool list: %q", formatted)
		}
		if names := ToolNames(list); names != "Search_News, Analyze_Sentiment" {
			t.Errorf("unexpected tool names: %q", names)
		}
	})

	t.Run("NoTools", func(t *testing.T) {
		if FormatToolList(nil) != "(no tools available)" {
			t.Error("empty tool list should say so")
		}
	})
}

func TestPromptBuilder(t *testing.T) {
	list := []tools.Tool{
		stubTool("Search_News", "Finds recent news."),
		stubTool("Analyze_Sentiment", "Scores text polarity."),
	}

	t.Run("ContainsProtocol", func(t *testing.T) {
		prompt := NewPromptBuilder().WithTools(list).Build()

		for _, want := range []string{
			"Search_News: Finds recent news.",
			"should be one of [Search_News, Analyze_Sentiment]",
			"Action Input:",
			"Final Answer:",
			"Begin!",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt should contain %q", want)
			}
		}
	})

	t.Run("CustomInstructionsFirst", func(t *testing.T) {
		prompt := NewPromptBuilder().
			WithTools(list).
			WithCustomInstructions("Answer in Portuguese.").
			Build()

		if !strings.HasPrefix(prompt, "Answer in Portuguese.\n\n") {
			t.Error("custom instructions should open the prompt")
		}
	})

	t.Run("NoCustomInstructions", func(t *testing.T) {
		prompt := NewPromptBuilder().WithTools(list).Build()
		if !strings.HasPrefix(prompt, SystemCapabilitiesPrompt) {
			t.Error("prompt should open with system capabilities")
		}
	})
}

func TestBuildMessages(t *testing.T) {
	tr := memory.NewTranscript("COP30")
	tr.Append(memory.ActionTurn("need news", "Search_News", "COP30"))
	tr.Append(memory.ObservationTurn("Search_News", "results"))
	tr.Append(memory.MalformedTurn("rambling"))
	tr.Append(memory.CorrectionTurn("Invalid Format"))

	messages := BuildMessages("system", tr)

	wantRoles := []types.MessageRole{
		types.RoleSystem,
		types.RoleUser,
		types.RoleAssistant,
		types.RoleUser,
		types.RoleAssistant,
		types.RoleUser,
	}
	if len(messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(messages))
	}
	for i, role := range wantRoles {
		if messages[i].Role != role {
			t.Errorf("message %d: expected role %s, got %s", i, role, messages[i].Role)
		}
	}

	if messages[0].Content != "system" {
		t.Errorf("unexpected system message: %q", messages[0].Content)
	}
	if messages[1].Content != "Question: COP30" {
		t.Errorf("unexpected goal message: %q", messages[1].Content)
	}
	if messages[2].Content != "Thought: need news\nAction: Search_News\nAction Input: COP30" {
		t.Errorf("unexpected action message: %q", messages[2].Content)
	}
	if messages[3].Content != "Observation: results" {
		t.Errorf("unexpected observation message: %q", messages[3].Content)
	}
}

func TestBuildErrorRecoveryMessage(t *testing.T) {
	t.Run("UnknownTool", func(t *testing.T) {
		msg := BuildErrorRecoveryMessage(ErrorRecoveryContext{
			Type:           ErrorTypeUnknownTool,
			ToolName:       "Bad_Tool",
			AvailableTools: []string{"Search_News", "Analyze_Sentiment"},
		})
		if msg != "Bad_Tool is not a valid tool, try one of [Search_News, Analyze_Sentiment]." {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("MalformedOutput", func(t *testing.T) {
		msg := BuildErrorRecoveryMessage(ErrorRecoveryContext{
			Type:   ErrorTypeMalformedOutput,
			Reason: "missing 'Action Input:' after 'Action:'",
		})
		if !strings.HasPrefix(msg, "Invalid Format: missing 'Action Input:' after 'Action:'.") {
			t.Errorf("unexpected message: %q", msg)
		}
	})
}

func TestBuildTopicGoal(t *testing.T) {
	want := "Search for the latest news about 'COP30'. Then, YOU MUST use the 'Analyze_Sentiment' tool on the content of the news found to give me the polarity score."
	if got := BuildTopicGoal("COP30"); got != want {
		t.Errorf("BuildTopicGoal() = %q, want %q", got, want)
	}
}
