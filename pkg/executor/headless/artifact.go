package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) error {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write JSON execution report
	if err := w.WriteExecutionJSON(summary); err != nil {
		return fmt.Errorf("failed to write execution JSON: %w", err)
	}

	// Write markdown summary
	if err := w.WriteSummaryMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	// Write metrics JSON
	if err := w.WriteMetricsJSON(summary); err != nil {
		return fmt.Errorf("failed to write metrics JSON: %w", err)
	}

	return nil
}

// WriteExecutionJSON writes the full execution summary as JSON
func (w *ArtifactWriter) WriteExecutionJSON(summary *ExecutionSummary) error {
	return w.writeJSON("execution.json", summary)
}

// WriteMetricsJSON writes execution metrics as JSON
func (w *ArtifactWriter) WriteMetricsJSON(summary *ExecutionSummary) error {
	return w.writeJSON("metrics.json", summary.Metrics)
}

func (w *ArtifactWriter) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if writeErr := os.WriteFile(filepath.Join(w.outputDir, name), data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", name, writeErr)
	}
	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString("# News Sentiment Batch Summary\n\n")
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("**Error:** %s\n\n", summary.Error))
	}

	// Topics
	md.WriteString("## Topics\n\n")
	for _, run := range summary.Runs {
		md.WriteString(fmt.Sprintf("### %s\n\n", run.Topic))
		if run.Status == statusSuccess {
			md.WriteString(fmt.Sprintf("✅ %s\n\n", run.Answer))
		} else {
			md.WriteString(fmt.Sprintf("❌ **%s:** %s\n\n", run.Status, run.Error))
		}
		md.WriteString(fmt.Sprintf("- Tool calls: %d, model calls: %d, tokens: %d, duration: %s\n\n",
			run.ToolCalls, run.ModelCalls, run.TokensUsed, run.Duration.Round(time.Millisecond)))
	}

	// Metrics
	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Topics:** %d\n", summary.Metrics.Topics))
	md.WriteString(fmt.Sprintf("- **Succeeded:** %d\n", summary.Metrics.Succeeded))
	md.WriteString(fmt.Sprintf("- **Failed:** %d\n", summary.Metrics.Failed))
	md.WriteString(fmt.Sprintf("- **Skipped:** %d\n", summary.Metrics.Skipped))
	md.WriteString(fmt.Sprintf("- **Tokens Used:** %d\n", summary.Metrics.TokensUsed))
	md.WriteString(fmt.Sprintf("- **Model Calls:** %d\n", summary.Metrics.ModelCalls))
	md.WriteString(fmt.Sprintf("- **Tool Calls:** %d\n", summary.Metrics.ToolCalls))

	// Write file
	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// ExecutionSummary contains a complete summary of a headless batch
type ExecutionSummary struct {
	Topics    []string         `json:"topics"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Runs      []TopicRun       `json:"runs"`
	Metrics   ExecutionMetrics `json:"metrics"`
}

// TopicRun is the outcome of one topic
type TopicRun struct {
	Topic      string        `json:"topic"`
	Goal       string        `json:"goal"`
	Status     string        `json:"status"`
	Answer     string        `json:"answer,omitempty"`
	Error      string        `json:"error,omitempty"`
	Steps      int           `json:"steps"`
	ModelCalls int           `json:"model_calls"`
	ToolCalls  int           `json:"tool_calls"`
	TokensUsed int           `json:"tokens_used"`
	Duration   time.Duration `json:"duration"`
}

// ExecutionMetrics contains execution metrics
type ExecutionMetrics struct {
	Topics     int `json:"topics"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	TokensUsed int `json:"tokens_used"`
	ModelCalls int `json:"model_calls"`
	ToolCalls  int `json:"tool_calls"`
}
