// Package headless runs the news sentiment agent over a fixed list of topics
// without a terminal, for cron jobs and CI pipelines.
//
// Each topic becomes one agent run bounded by:
//
//   - a per-topic timeout
//   - an optional token budget, enforced from the run's token usage events
//
// A failed topic does not stop the batch. The overall status is success when
// every topic answered, partial_success when some did, and failed when none
// did. Only a failed batch makes Run return an error.
//
// Artifacts:
//
// The artifact writer generates execution reports:
//
//   - execution.json: Full execution summary
//   - summary.md: Human-readable markdown summary
//   - metrics.json: Aggregated counters
//
// Example usage:
//
//	config := headless.DefaultConfig()
//	config.Topics = []string{"COP30", "Petrobras"}
//
//	executor, _ := headless.NewExecutor(ag, config)
//	summary, err := executor.Run(ctx)
package headless
