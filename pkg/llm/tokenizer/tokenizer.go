// Package tokenizer counts tokens locally with tiktoken.
//
// It is used when a provider does not report usage metadata, and for the
// prompt-size figure logged before each model call. Counts are an estimate for
// non-OpenAI models.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/newsagent/pkg/types"
)

// DefaultEncoding is the BPE used for estimates.
const DefaultEncoding = "cl100k_base"

// perMessageOverhead approximates the role and separator tokens of the chat format.
const perMessageOverhead = 4

// Tokenizer counts tokens for text and chat messages.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a tokenizer with the default encoding. It can fail when the BPE
// ranks cannot be loaded (no network and no cache); callers fall back to
// CountApprox.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.enc == nil {
		return CountApprox(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count of a chat message list.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += t.CountTokens(msg.Content) + t.CountTokens(string(msg.Role)) + perMessageOverhead
	}
	return total
}

// Estimate builds a usage record for a prompt/completion pair.
func (t *Tokenizer) Estimate(messages []*types.Message, completion string) *types.TokenUsage {
	prompt := t.CountMessagesTokens(messages)
	out := t.CountTokens(completion)
	return &types.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
		Estimated:        true,
	}
}

// CountApprox estimates tokens as one per four bytes, rounded up.
func CountApprox(text string) int {
	return (len(text) + 3) / 4
}
