package agent

import (
	"context"
	"fmt"

	"github.com/entrhq/newsagent/pkg/agent/prompts"
	"github.com/entrhq/newsagent/pkg/llm"
	"github.com/entrhq/newsagent/pkg/types"
)

// callLLM renders the transcript and asks the model for the next step.
// The call is bounded by the configured LLM timeout.
func (r *run) callLLM(ctx context.Context) (*llm.Completion, error) {
	a := r.agent
	messages := prompts.BuildMessages(r.systemPrompt, r.transcript)

	// Track prompt tokens before sending to LLM
	var promptTokens int
	if a.tokenizer != nil {
		promptTokens = a.tokenizer.CountMessagesTokens(messages)
		agentDebugLog.Debugf("run %s prompt tokens before send: %d", r.id, promptTokens)
	}

	r.invocations++
	r.emit(types.NewAPICallStartEvent(r.invocations, promptTokens))

	callCtx := ctx
	if a.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.config.LLMTimeout)
		defer cancel()
	}

	completion, err := a.provider.Complete(callCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("model call %d: %w", r.invocations, err)
	}
	if completion == nil {
		return nil, fmt.Errorf("model call %d: provider returned no completion", r.invocations)
	}

	if completion.Thinking != "" {
		agentDebugLog.Debugf("run %s model thinking: %s", r.id, completion.Thinking)
	}

	if completion.Usage == nil && a.estimateUsage {
		completion.Usage = a.tokenizer.Estimate(messages, completion.Text)
	}

	return completion, nil
}

// recordUsage adds the step's usage to the tracker and announces it.
// Steps without usage metadata produce no record.
func (r *run) recordUsage(u *types.TokenUsage) {
	rec, ok := r.tracker.Observe(r.invocations, u)
	if !ok {
		agentDebugLog.Debugf("run %s step %d reported no token usage", r.id, r.invocations)
		return
	}

	r.emit(types.NewTokenUsageEvent(r.invocations, &types.TokenUsage{
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		TotalTokens:      rec.TotalTokens,
		Estimated:        rec.Estimated,
	}))
}
