package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/newsagent/pkg/types"
)

// ErrScriptExhausted is returned by MockProvider when every scripted reply
// has been used.
var ErrScriptExhausted = errors.New("mock provider: no scripted replies left")

// MockReply is one scripted completion.
type MockReply struct {
	Text  string
	Usage *types.TokenUsage
	Err   error
	// Block makes the call wait for context cancellation.
	Block bool
}

// MockProvider replays scripted completions in order. It records the
// messages of every call. Useful for tests and offline demos.
type MockProvider struct {
	mu      sync.Mutex
	replies []MockReply
	repeat  bool
	calls   [][]*types.Message
}

// NewMockProvider creates a provider that returns the replies in order.
func NewMockProvider(replies ...MockReply) *MockProvider {
	return &MockProvider{replies: replies}
}

// Repeat makes the provider return its last reply forever once the script
// runs out.
func (m *MockProvider) Repeat() *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = true
	return m
}

// Complete returns the next scripted reply.
func (m *MockProvider) Complete(ctx context.Context, messages []*types.Message) (*Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	idx := len(m.calls) - 1
	if idx >= len(m.replies) {
		if !m.repeat || len(m.replies) == 0 {
			m.mu.Unlock()
			return nil, ErrScriptExhausted
		}
		idx = len(m.replies) - 1
	}
	reply := m.replies[idx]
	m.mu.Unlock()

	if reply.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.Err != nil {
		return nil, reply.Err
	}

	var usage *types.TokenUsage
	if reply.Usage != nil {
		u := *reply.Usage
		usage = &u
	}
	return &Completion{Text: reply.Text, Usage: usage}, nil
}

// StreamCompletion delivers the next scripted reply as a single chunk.
func (m *MockProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error) {
	completion, err := m.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan *StreamChunk, 1)
	ch <- &StreamChunk{
		Content:  completion.Text,
		Role:     string(types.RoleAssistant),
		Type:     ContentTypeMessage,
		Usage:    completion.Usage,
		Finished: true,
	}
	close(ch)
	return ch, nil
}

// GetModelInfo describes the mock model.
func (m *MockProvider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{Provider: "mock", Name: "scripted", SupportsStreaming: true}
}

// GetModel returns the mock model name.
func (m *MockProvider) GetModel() string {
	return "scripted"
}

// Calls returns the number of completions requested so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Messages returns the messages sent with the i-th call.
func (m *MockProvider) Messages(i int) []*types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.calls) {
		return nil
	}
	return m.calls[i]
}
