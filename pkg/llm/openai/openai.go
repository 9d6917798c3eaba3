// Package openai provides an OpenAI-compatible chat completions provider.
//
// Any endpoint speaking the OpenAI chat completions protocol works, including
// Gemini's compatibility endpoint, which is the default for newsagent:
//
//	provider, err := openai.NewProvider(os.Getenv("GOOGLE_API_KEY"),
//	    openai.WithBaseURL(openai.GeminiBaseURL),
//	    openai.WithModel("gemini-2.5-flash"),
//	    openai.WithTemperature(0),
//	)
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/newsagent/pkg/llm"
	"github.com/entrhq/newsagent/pkg/llm/parser"
	"github.com/entrhq/newsagent/pkg/types"
)

const (
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// GeminiBaseURL is Google's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

// ErrMissingAPIKey is returned by NewProvider when no key is supplied.
var ErrMissingAPIKey = errors.New("API key is required")

// Provider implements llm.Provider for OpenAI-compatible APIs.
type Provider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	stop        []string
	modelInfo   *types.ModelInfo
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ProviderOption {
	return func(p *Provider) {
		p.temperature = &t
	}
}

// WithStop sets stop sequences. The agent passes "\nObservation:" so a model
// cannot invent its own tool results.
func WithStop(stop ...string) ProviderOption {
	return func(p *Provider) {
		p.stop = stop
	}
}

// WithHTTPClient replaces the HTTP client. Timeouts are applied per call
// through the context, so the default client has none.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// NewProvider creates a provider. The key is required; loading it from the
// environment is the caller's job.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    GeminiBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.modelInfo = &types.ModelInfo{
		Provider:          "openai-compatible",
		Name:              p.model,
		SupportsStreaming: true,
		Metadata:          map[string]interface{}{"base_url": p.baseURL},
	}
	return p, nil
}

// StreamCompletion sends messages to the chat completions endpoint and
// streams back chunks. Usage is requested through stream_options and arrives
// as a final chunk with Usage set.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendStreamRequest(ctx, messages)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.processStreamResponse(ctx, resp, chunks)
	return chunks, nil
}

func (p *Provider) sendStreamRequest(ctx context.Context, messages []*types.Message) (*http.Response, error) {
	reqBody := map[string]interface{}{
		"model":          p.model,
		"messages":       convertToOpenAIMessages(messages),
		"stream":         true,
		"stream_options": map[string]interface{}{"include_usage": true},
	}
	if p.temperature != nil {
		reqBody["temperature"] = *p.temperature
	}
	if len(p.stop) > 0 {
		reqBody["stop"] = p.stop
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// sseChunk is the subset of a chat.completion.chunk the provider reads.
type sseChunk struct {
	Choices []struct {
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) processStreamResponse(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	thinkingParser := parser.NewThinkingParser()
	role := ""

	for scanner.Scan() {
		line := scanner.Text()
		if !isValidSSELine(line) {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			p.flush(ctx, thinkingParser, role, chunks)
			p.send(ctx, &llm.StreamChunk{Finished: true}, chunks)
			return
		}

		var chunk sseChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // some compatible servers interleave non-JSON keepalives
		}

		if chunk.Usage != nil {
			usage := &types.TokenUsage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
			if !p.send(ctx, &llm.StreamChunk{Usage: usage}, chunks) {
				return
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if role == "" && delta.Role != "" {
			role = delta.Role
		}
		if delta.Content != "" {
			thinking, message := thinkingParser.Parse(delta.Content)
			if !p.sendParsed(ctx, thinking, message, role, chunks) {
				return
			}
		}
	}

	p.flush(ctx, thinkingParser, role, chunks)
	if err := scanner.Err(); err != nil {
		p.send(ctx, &llm.StreamChunk{Error: fmt.Errorf("stream read error: %w", err)}, chunks)
	}
}

func isValidSSELine(line string) bool {
	return line != "" && !strings.HasPrefix(line, ":") && strings.HasPrefix(line, "data:")
}

func (p *Provider) flush(ctx context.Context, tp *parser.ThinkingParser, role string, chunks chan<- *llm.StreamChunk) {
	thinking, message := tp.Flush()
	p.sendParsed(ctx, thinking, message, role, chunks)
}

func (p *Provider) sendParsed(ctx context.Context, thinking, message *llm.StreamChunk, role string, chunks chan<- *llm.StreamChunk) bool {
	for _, c := range []*llm.StreamChunk{thinking, message} {
		if c == nil {
			continue
		}
		c.Role = role
		if !p.send(ctx, c, chunks) {
			return false
		}
	}
	return true
}

// send delivers a chunk unless the context is done. The buffered error send
// on cancellation never blocks forever since the reader drains until close.
func (p *Provider) send(ctx context.Context, chunk *llm.StreamChunk, chunks chan<- *llm.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		select {
		case chunks <- &llm.StreamChunk{Error: ctx.Err()}:
		default:
		}
		return false
	}
}

// Complete accumulates a streamed completion. Reasoning text is kept apart
// from the message text the agent parses.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*llm.Completion, error) {
	stream, err := p.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	var text, thinking strings.Builder
	var usage *types.TokenUsage

	for chunk := range stream {
		if chunk.IsError() {
			// Drain so the producer goroutine can exit.
			for range stream {
			}
			return nil, chunk.Error
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.IsThinking() {
			thinking.WriteString(chunk.Content)
		} else {
			text.WriteString(chunk.Content)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &llm.Completion{
		Text:     text.String(),
		Thinking: thinking.String(),
		Usage:    usage,
	}, nil
}

// GetModelInfo returns information about the model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

func convertToOpenAIMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
