// Package parser separates reasoning blocks from the answer text of a completion.
//
// Some models wrap hidden reasoning in <thinking> or <think> tags. That text
// must not reach the ReAct grammar parser, since it often quotes markers such
// as "Final Answer:" while the model is still deliberating.
package parser

import (
	"strings"

	"github.com/entrhq/newsagent/pkg/llm"
)

var (
	openTags  = map[string]bool{"<thinking>": true, "<think>": true}
	closeTags = map[string]bool{"</thinking>": true, "</think>": true}
)

// ThinkingParser splits streamed content into thinking and message chunks.
// Tags may span chunk boundaries, so partial tags are buffered.
type ThinkingParser struct {
	buffer     strings.Builder
	tagBuffer  strings.Builder
	inThinking bool
	inTag      bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Split runs a fresh parser over a complete text and returns the reasoning and
// message parts.
func Split(text string) (thinking, message string) {
	p := NewThinkingParser()
	var tb, mb strings.Builder
	collect := func(t, m *llm.StreamChunk) {
		if t != nil {
			tb.WriteString(t.Content)
		}
		if m != nil {
			mb.WriteString(m.Content)
		}
	}
	collect(p.Parse(text))
	collect(p.Flush())
	return tb.String(), mb.String()
}

// Parse processes a content chunk. Either return value may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	for _, ch := range content {
		switch {
		case ch == '<':
			// A second '<' means the buffered one was plain text.
			if p.inTag {
				thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
			}
			if p.buffer.Len() > 0 {
				thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(p.buffer.String()))
				p.buffer.Reset()
			}
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)

		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false

			lower := strings.ToLower(tag)
			if openTags[lower] {
				p.inThinking = true
				continue
			}
			if closeTags[lower] {
				p.inThinking = false
				continue
			}
			thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(tag))

		case p.inTag:
			p.tagBuffer.WriteRune(ch)

		default:
			p.buffer.WriteRune(ch)
		}
	}

	if p.buffer.Len() > 0 {
		thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(p.buffer.String()))
		p.buffer.Reset()
	}
	return thinkingChunk, messageChunk
}

func (p *ThinkingParser) flushTagBuffer() *llm.StreamChunk {
	if p.tagBuffer.Len() == 0 {
		return nil
	}
	text := p.tagBuffer.String()
	p.tagBuffer.Reset()
	return p.createChunk(text)
}

func (p *ThinkingParser) createChunk(text string) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	if p.inThinking {
		return &llm.StreamChunk{Content: text, Type: llm.ContentTypeThinking}
	}
	return &llm.StreamChunk{Content: text, Type: llm.ContentTypeMessage}
}

func (p *ThinkingParser) appendChunk(thinkingChunk, messageChunk, newChunk *llm.StreamChunk) (*llm.StreamChunk, *llm.StreamChunk) {
	if newChunk == nil {
		return thinkingChunk, messageChunk
	}

	if newChunk.IsThinking() {
		if thinkingChunk == nil {
			return newChunk, messageChunk
		}
		thinkingChunk.Content += newChunk.Content
		return thinkingChunk, messageChunk
	}

	if messageChunk == nil {
		return thinkingChunk, newChunk
	}
	messageChunk.Content += newChunk.Content
	return thinkingChunk, messageChunk
}

// IsInThinking returns true if currently inside a reasoning block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Flush returns buffered content. Call it once at the end of a stream.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	if p.inTag && p.tagBuffer.Len() > 0 {
		thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
		p.inTag = false
	}

	if p.buffer.Len() > 0 {
		text := p.buffer.String()
		p.buffer.Reset()
		thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(text))
	}
	return thinkingChunk, messageChunk
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.buffer.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}
