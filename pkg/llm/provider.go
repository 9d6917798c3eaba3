// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("GOOGLE_API_KEY"),
//	    openai.WithBaseURL(openai.GeminiBaseURL),
//	    openai.WithModel("gemini-2.5-flash"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	completion, err := provider.Complete(ctx, []*types.Message{
//	    types.NewUserMessage("Hello!"),
//	})
//	fmt.Println(completion.Text, completion.Usage)
package llm

import (
	"context"

	"github.com/entrhq/newsagent/pkg/types"
)

// Provider defines the interface for LLM integrations.
//
// Providers only handle API communication. The agent layer owns the
// transcript, parsing of the completion text and token accounting.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response chunks.
	//
	// The channel is closed when streaming completes or an error occurs.
	// Stream-time errors are sent as chunks with Error set. The last chunk
	// before close may carry Usage if the API reported it.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the whole completion.
	// It is a convenience wrapper around StreamCompletion.
	Complete(ctx context.Context, messages []*types.Message) (*Completion, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}

// Completion is the result of a single model invocation: the text the agent
// parses and the optional usage metadata reported with it.
type Completion struct {
	Text     string
	Thinking string
	Usage    *types.TokenUsage
}
