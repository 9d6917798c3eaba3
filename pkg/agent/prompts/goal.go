package prompts

import "fmt"

// BuildTopicGoal wraps a topic in the instruction that makes the agent search
// first and then score sentiment.
func BuildTopicGoal(topic string) string {
	return fmt.Sprintf("Search for the latest news about '%s'. Then, YOU MUST use the 'Analyze_Sentiment' tool "+
		"on the content of the news found to give me the polarity score.", topic)
}
