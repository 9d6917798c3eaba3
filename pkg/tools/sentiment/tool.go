package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ToolName is the name the model uses to call the sentiment tool.
const ToolName = "Analyze_Sentiment"

// ErrEmptyText is returned when there is nothing to score.
var ErrEmptyText = errors.New("no text to analyze")

// Tool is the Analyze_Sentiment tool.
type Tool struct {
	analyzer *Analyzer
}

// NewTool creates the tool over an analyzer.
func NewTool(analyzer *Analyzer) *Tool {
	return &Tool{analyzer: analyzer}
}

// NewDefaultTool creates the tool over the embedded lexicon.
func NewDefaultTool() (*Tool, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return NewTool(NewAnalyzer(lex)), nil
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return ToolName
}

// Description returns the tool description.
func (t *Tool) Description() string {
	return "Measures the sentiment of a text. Input is the text to score, such as the news lines returned by Search_News. " +
		"Returns POSITIVE, NEGATIVE or NEUTRAL with a polarity score between -1 and 1."
}

// Label names the tool in failure observations.
func (t *Tool) Label() string {
	return "sentiment"
}

// Execute scores the input and renders "LABEL (score: 0.00)".
func (t *Tool) Execute(_ context.Context, input string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", ErrEmptyText
	}

	score := t.analyzer.Analyze(text)
	return FormatScore(score), nil
}

// FormatScore renders a score the way the tool reports it.
func FormatScore(s Score) string {
	polarity := math.Round(s.Polarity*100) / 100
	if polarity == 0 {
		// avoid "-0.00"
		polarity = 0
	}
	return fmt.Sprintf("%s (score: %.2f)", s.Label, polarity)
}
