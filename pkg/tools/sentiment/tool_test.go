package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTool(t *testing.T) {
	tool := NewTool(testAnalyzer(t))

	assert.Equal(t, "Analyze_Sentiment", tool.Name())
	assert.Equal(t, "sentiment", tool.Label())
	assert.NotEmpty(t, tool.Description())

	t.Run("positive", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), "good progress")
		require.NoError(t, err)
		assert.Equal(t, "POSITIVE (score: 0.55)", out)
	})

	t.Run("negative", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), "a bad crisis")
		require.NoError(t, err)
		assert.Equal(t, "NEGATIVE (score: -0.65)", out)
	})

	t.Run("neutral", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), "the summit starts on Monday")
		require.NoError(t, err)
		assert.Equal(t, "NEUTRAL (score: 0.00)", out)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := tool.Execute(context.Background(), "  \n ")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := tool.Execute(context.Background(), "good progress amid crisis")
		require.NoError(t, err)
		second, err := tool.Execute(context.Background(), "good progress amid crisis")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNewDefaultTool(t *testing.T) {
	tool, err := NewDefaultTool()
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), "Delegates praised the strong start of COP30")
	require.NoError(t, err)
	assert.Contains(t, out, "POSITIVE (score: ")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "NEUTRAL (score: 0.00)", FormatScore(Score{Polarity: -0.001, Label: Neutral}))
	assert.Equal(t, "POSITIVE (score: 0.40)", FormatScore(Score{Polarity: 0.4, Label: Positive}))
}
