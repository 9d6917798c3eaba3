// Package usage records token consumption for each model invocation of a run.
package usage

import (
	"sync"

	"github.com/entrhq/newsagent/pkg/types"
)

// Record is the usage of one model invocation. StepIndex counts model
// invocations within the run, starting at 1.
type Record struct {
	StepIndex        int
	TotalTokens      int
	PromptTokens     int
	CompletionTokens int
	Estimated        bool
}

// Tracker accumulates records for a single run. Records are append-only and
// kept in step order.
type Tracker struct {
	mu      sync.Mutex
	records []Record
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records the usage reported for a step. Missing or non-positive
// metadata is ignored and reported as false.
func (t *Tracker) Observe(step int, u *types.TokenUsage) (Record, bool) {
	if u == nil {
		return Record{}, false
	}

	total := u.TotalTokens
	if total <= 0 && u.PromptTokens > 0 && u.CompletionTokens >= 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	if total <= 0 {
		return Record{}, false
	}

	rec := Record{
		StepIndex:        step,
		TotalTokens:      total,
		PromptTokens:     max(u.PromptTokens, 0),
		CompletionTokens: max(u.CompletionTokens, 0),
		Estimated:        u.Estimated,
	}

	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()

	return rec, true
}

// Report returns a copy of the records in step order.
func (t *Tracker) Report() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Total returns the sum of all recorded totals.
func (t *Tracker) Total() int {
	return Sum(t.Report())
}

// Sum adds up the totals of a report.
func Sum(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.TotalTokens
	}
	return total
}

// Session aggregates the reports of many runs. It is what the CLI keeps
// across topics; each run still owns its own Tracker.
type Session struct {
	mu     sync.Mutex
	runs   int
	tokens int
}

// Add folds a finished run's report into the session.
func (s *Session) Add(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.tokens += Sum(records)
}

// Totals returns the number of runs and tokens seen so far.
func (s *Session) Totals() (runs, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.tokens
}
