package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/newsagent/pkg/agent/memory"
	"github.com/entrhq/newsagent/pkg/agent/tools"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/llm"
	"github.com/entrhq/newsagent/pkg/types"
)

const cop30News = "- [2025-11-10] COP30 opens in Belem (Reuters): Delegates praised the strong start.\n" +
	"- [2025-11-11] Climate finance deal advances (AP): Negotiators welcomed progress."

// countingTool records how often it ran.
type countingTool struct {
	mu     sync.Mutex
	name   string
	output string
	calls  int
	inputs []string
}

func (c *countingTool) Name() string        { return c.name }
func (c *countingTool) Description() string { return "test tool " + c.name }
func (c *countingTool) Execute(_ context.Context, input string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.inputs = append(c.inputs, input)
	return c.output, nil
}

func (c *countingTool) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestRegistry(t *testing.T) (*tools.Registry, *countingTool, *countingTool) {
	t.Helper()
	search := &countingTool{name: "Search_News", output: cop30News}
	sentiment := &countingTool{name: "Analyze_Sentiment", output: "POSITIVE (score: 0.40)"}

	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(search))
	require.NoError(t, registry.Register(sentiment))
	return registry, search, sentiment
}

func usageOf(total int) *types.TokenUsage {
	return &types.TokenUsage{TotalTokens: total}
}

func turnKinds(turns []memory.Turn) []memory.TurnKind {
	kinds := make([]memory.TurnKind, len(turns))
	for i, turn := range turns {
		kinds[i] = turn.Kind
	}
	return kinds
}

func TestNewReActAgent(t *testing.T) {
	registry := tools.NewRegistry()
	provider := llm.NewMockProvider()

	t.Run("Defaults", func(t *testing.T) {
		ag, err := NewReActAgent(provider, registry)
		require.NoError(t, err)
		assert.Equal(t, DefaultLoopConfig(), ag.Config())
	})

	t.Run("Options", func(t *testing.T) {
		ag, err := NewReActAgent(provider, registry,
			WithMaxSteps(3),
			WithMaxParseRetries(2),
			WithLLMTimeout(time.Second),
		)
		require.NoError(t, err)
		assert.Equal(t, LoopConfig{MaxSteps: 3, MaxParseRetries: 2, LLMTimeout: time.Second}, ag.Config())
	})

	testCases := []struct {
		name        string
		provider    llm.Provider
		registry    *tools.Registry
		opts        []AgentOption
		expectedErr string
	}{
		{name: "NoProvider", registry: registry, expectedErr: "llm provider is required"},
		{name: "NoRegistry", provider: provider, expectedErr: "tool registry is required"},
		{name: "ZeroSteps", provider: provider, registry: registry, opts: []AgentOption{WithMaxSteps(0)}, expectedErr: "max steps"},
		{name: "ZeroRetries", provider: provider, registry: registry, opts: []AgentOption{WithMaxParseRetries(0)}, expectedErr: "max parse retries"},
		{name: "EstimationWithoutTokenizer", provider: provider, registry: registry, opts: []AgentOption{WithUsageEstimation(true)}, expectedErr: "tokenizer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReActAgent(tc.provider, tc.registry, tc.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestRunSearchThenSentiment(t *testing.T) {
	registry, search, sentiment := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Thought: I need news\nAction: Search_News\nAction Input: COP30", Usage: usageOf(412)},
		llm.MockReply{Text: "Thought: now score it\nAction: Analyze_Sentiment\nAction Input: " + cop30News, Usage: usageOf(600)},
		llm.MockReply{Text: "Thought: I now know the final answer\nFinal Answer: Coverage of COP30 is POSITIVE (score: 0.40).", Usage: usageOf(650)},
	)

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	var events []*types.AgentEvent
	result, err := ag.Run(context.Background(), "Search for the latest news about 'COP30'", func(e *types.AgentEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	assert.Equal(t, "Coverage of COP30 is POSITIVE (score: 0.40).", result.Answer)
	assert.Equal(t, "I now know the final answer", result.Thought)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 3, result.Invocations)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, []usage.Record{
		{StepIndex: 1, TotalTokens: 412},
		{StepIndex: 2, TotalTokens: 600},
		{StepIndex: 3, TotalTokens: 650},
	}, result.Usage)
	assert.Equal(t, 1662, result.TotalTokens())

	assert.Equal(t, []memory.TurnKind{
		memory.TurnGoal,
		memory.TurnAction,
		memory.TurnObservation,
		memory.TurnAction,
		memory.TurnObservation,
		memory.TurnFinal,
	}, turnKinds(result.Transcript))

	assert.Equal(t, 1, search.Calls())
	assert.Equal(t, []string{"COP30"}, search.inputs)
	assert.Equal(t, 1, sentiment.Calls())
	assert.Equal(t, []string{cop30News}, sentiment.inputs)

	t.Run("observations reach the model", func(t *testing.T) {
		msgs := provider.Messages(1)
		require.NotEmpty(t, msgs)
		last := msgs[len(msgs)-1]
		assert.Equal(t, types.RoleUser, last.Role)
		assert.Equal(t, "Observation: "+cop30News, last.Content)
	})

	t.Run("events", func(t *testing.T) {
		var kinds []types.AgentEventType
		for _, e := range events {
			kinds = append(kinds, e.Type)
			assert.Equal(t, result.RunID, e.Metadata["run_id"])
		}
		assert.Contains(t, kinds, types.EventTypeToolCall)
		assert.Contains(t, kinds, types.EventTypeToolResult)
		assert.Contains(t, kinds, types.EventTypeTokenUsage)
		assert.Equal(t, types.EventTypeFinalAnswer, kinds[len(kinds)-2])
		assert.Equal(t, types.EventTypeTurnEnd, kinds[len(kinds)-1])
	})
}

func TestRunUnknownToolRecovers(t *testing.T) {
	registry, search, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Thought: try this\nAction: Bad_Tool\nAction Input: x"},
		llm.MockReply{Text: "Action: Search_News\nAction Input: COP30"},
		llm.MockReply{Text: "Final Answer: done"},
	)

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	result, err := ag.Run(context.Background(), "COP30", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", result.Answer)
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, 1, search.Calls())

	correction := result.Transcript[2]
	assert.Equal(t, memory.TurnObservation, correction.Kind)
	assert.True(t, correction.Correction)
	assert.Equal(t, "Bad_Tool is not a valid tool, try one of [Search_News, Analyze_Sentiment].", correction.Content)

	msgs := provider.Messages(1)
	assert.Contains(t, msgs[len(msgs)-1].Content, "Bad_Tool is not a valid tool")
}

func TestRunStepLimit(t *testing.T) {
	for _, maxSteps := range []int{1, 3} {
		t.Run(fmt.Sprintf("max_steps_%d", maxSteps), func(t *testing.T) {
			registry, search, _ := newTestRegistry(t)
			provider := llm.NewMockProvider(
				llm.MockReply{Text: "Action: Search_News\nAction Input: COP30", Usage: usageOf(100)},
			).Repeat()

			ag, err := NewReActAgent(provider, registry, WithMaxSteps(maxSteps))
			require.NoError(t, err)

			result, err := ag.Run(context.Background(), "COP30", nil)
			assert.Nil(t, result)
			require.ErrorIs(t, err, ErrStepLimitExceeded)

			var runErr *RunError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, maxSteps, runErr.Steps)
			assert.Equal(t, maxSteps, runErr.Invocations)
			assert.Equal(t, 1+2*maxSteps, runErr.TranscriptLen)
			assert.Len(t, runErr.Usage, maxSteps)
			assert.Equal(t, 100*maxSteps, runErr.TotalTokens())

			assert.Equal(t, maxSteps, search.Calls())
			assert.Equal(t, maxSteps, provider.Calls())
		})
	}
}

func TestRunParseRetriesExhausted(t *testing.T) {
	registry, search, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "The news looks fine to me."},
	).Repeat()

	ag, err := NewReActAgent(provider, registry, WithMaxParseRetries(2))
	require.NoError(t, err)

	_, err = ag.Run(context.Background(), "COP30", nil)
	require.ErrorIs(t, err, ErrParseRetriesExhausted)
	assert.Equal(t, 2, provider.Calls())
	assert.Equal(t, 0, search.Calls())

	t.Run("correction reaches the model", func(t *testing.T) {
		msgs := provider.Messages(1)
		last := msgs[len(msgs)-1]
		assert.True(t, strings.HasPrefix(last.Content, "Observation: Invalid Format:"))
		assert.Equal(t, types.RoleAssistant, msgs[len(msgs)-2].Role)
	})
}

func TestRunRetriesResetAfterToolCall(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "no format"},
		llm.MockReply{Text: "Action: Search_News\nAction Input: COP30"},
		llm.MockReply{Text: "still no format"},
		llm.MockReply{Text: "Action: Unknown\nAction Input: x"},
		llm.MockReply{Text: "Final Answer: NEUTRAL"},
	)

	ag, err := NewReActAgent(provider, registry, WithMaxParseRetries(3))
	require.NoError(t, err)

	result, err := ag.Run(context.Background(), "COP30", nil)
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", result.Answer)
}

func TestRunToolPanicBecomesObservation(t *testing.T) {
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tools.NewFunc("Search_News", "search", func(context.Context, string) (string, error) {
		panic("boom")
	}).WithLabel("search")))

	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Action: Search_News\nAction Input: COP30"},
		llm.MockReply{Text: "Final Answer: the search tool failed"},
	)

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	var toolErrors int
	result, err := ag.Run(context.Background(), "COP30", func(e *types.AgentEvent) {
		if e.Type == types.EventTypeToolResultError {
			toolErrors++
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, 1, toolErrors)
	assert.Equal(t, "Critical error in search tool: boom", result.Transcript[2].Content)
}

func TestRunCancellation(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(llm.MockReply{Block: true})

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := ag.Run(ctx, "COP30", nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	var runErr *RunError
	assert.False(t, errors.As(err, &runErr))
}

func TestRunCancellationDuringTool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tools.NewFunc("Search_News", "search", func(context.Context, string) (string, error) {
		cancel()
		return "results", nil
	})))

	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Action: Search_News\nAction Input: COP30"},
		llm.MockReply{Text: "Final Answer: never reached"},
	)

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	result, err := ag.Run(ctx, "COP30", nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, provider.Calls())
}

func TestRunLLMFailures(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)
		provider := llm.NewMockProvider(llm.MockReply{Block: true})

		ag, err := NewReActAgent(provider, registry, WithLLMTimeout(20*time.Millisecond))
		require.NoError(t, err)

		result, err := ag.Run(context.Background(), "COP30", nil)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrLLMCall)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("provider error", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)
		apiErr := errors.New("API error (status 503): overloaded")
		provider := llm.NewMockProvider(
			llm.MockReply{Text: "Action: Search_News\nAction Input: COP30", Usage: usageOf(300)},
			llm.MockReply{Err: apiErr},
		)

		ag, err := NewReActAgent(provider, registry)
		require.NoError(t, err)

		_, err = ag.Run(context.Background(), "COP30", nil)
		require.ErrorIs(t, err, ErrLLMCall)
		assert.ErrorIs(t, err, apiErr)

		var runErr *RunError
		require.ErrorAs(t, err, &runErr)
		assert.Equal(t, 1, runErr.Steps)
		assert.Equal(t, 2, runErr.Invocations)
		assert.Equal(t, 300, runErr.TotalTokens())
	})

	t.Run("nil completion", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)
		ag, err := NewReActAgent(nilCompletionProvider{llm.NewMockProvider()}, registry)
		require.NoError(t, err)

		var result *Result
		require.NotPanics(t, func() {
			result, err = ag.Run(context.Background(), "COP30", nil)
		})
		assert.Nil(t, result)
		require.ErrorIs(t, err, ErrLLMCall)
		assert.Contains(t, err.Error(), "provider returned no completion")
	})
}

// nilCompletionProvider reports success without a completion.
type nilCompletionProvider struct {
	*llm.MockProvider
}

func (nilCompletionProvider) Complete(context.Context, []*types.Message) (*llm.Completion, error) {
	return nil, nil
}

func TestRunWithoutUsageMetadata(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Action: Search_News\nAction Input: COP30", Usage: usageOf(200)},
		llm.MockReply{Text: "Final Answer: ok"},
	)

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	result, err := ag.Run(context.Background(), "COP30", nil)
	require.NoError(t, err)
	assert.Equal(t, []usage.Record{{StepIndex: 1, TotalTokens: 200}}, result.Usage)
}

func TestRunEmptyGoal(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider()

	ag, err := NewReActAgent(provider, registry)
	require.NoError(t, err)

	_, err = ag.Run(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyGoal)
	assert.Equal(t, 0, provider.Calls())
}

func TestRunUsageSession(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(
		llm.MockReply{Text: "Final Answer: one", Usage: usageOf(100)},
		llm.MockReply{Text: "nonsense", Usage: usageOf(50)},
	)

	session := &usage.Session{}
	ag, err := NewReActAgent(provider, registry, WithUsageSession(session), WithMaxParseRetries(1))
	require.NoError(t, err)

	_, err = ag.Run(context.Background(), "first", nil)
	require.NoError(t, err)
	_, err = ag.Run(context.Background(), "second", nil)
	require.ErrorIs(t, err, ErrParseRetriesExhausted)

	runs, tokens := session.Totals()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 150, tokens)
}

func TestSystemPromptListsTools(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	provider := llm.NewMockProvider(llm.MockReply{Text: "Final Answer: ok"})

	ag, err := NewReActAgent(provider, registry, WithCustomInstructions("Be brief."))
	require.NoError(t, err)

	_, err = ag.Run(context.Background(), "COP30", nil)
	require.NoError(t, err)

	system := provider.Messages(0)[0]
	assert.Equal(t, types.RoleSystem, system.Role)
	assert.True(t, strings.HasPrefix(system.Content, "Be brief."))
	assert.Contains(t, system.Content, "[Search_News, Analyze_Sentiment]")
}
