// Package memory holds the per-run transcript of a ReAct conversation.
package memory

import (
	"strings"
)

// TurnKind identifies what a turn records.
type TurnKind int

const (
	// TurnGoal is the user's goal. It is always the first turn.
	TurnGoal TurnKind = iota
	// TurnAction is a parsed model step that named a tool.
	TurnAction
	// TurnMalformed is model output that could not be parsed.
	TurnMalformed
	// TurnObservation is a tool result or a correction fed back to the model.
	TurnObservation
	// TurnFinal is the model's final answer. Nothing follows it.
	TurnFinal
)

func (k TurnKind) String() string {
	switch k {
	case TurnGoal:
		return "goal"
	case TurnAction:
		return "action"
	case TurnMalformed:
		return "malformed"
	case TurnObservation:
		return "observation"
	case TurnFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Turn is one entry of the transcript. Which fields are set depends on Kind.
type Turn struct {
	Kind      TurnKind
	Thought   string
	ToolName  string
	ToolInput string
	// Content holds the goal, observation text, final answer or raw
	// malformed output.
	Content string
	// Correction marks observations produced by the loop rather than a tool.
	Correction bool
}

// GoalTurn creates the opening turn.
func GoalTurn(goal string) Turn {
	return Turn{Kind: TurnGoal, Content: goal}
}

// ActionTurn records a model step that chose a tool.
func ActionTurn(thought, tool, input string) Turn {
	return Turn{Kind: TurnAction, Thought: thought, ToolName: tool, ToolInput: input}
}

// MalformedTurn records unparseable model output verbatim.
func MalformedTurn(raw string) Turn {
	return Turn{Kind: TurnMalformed, Content: raw}
}

// ObservationTurn records a tool result.
func ObservationTurn(tool, observation string) Turn {
	return Turn{Kind: TurnObservation, ToolName: tool, Content: observation}
}

// CorrectionTurn records a loop-generated observation, such as a format
// reminder or an unknown-tool notice.
func CorrectionTurn(text string) Turn {
	return Turn{Kind: TurnObservation, Content: text, Correction: true}
}

// FinalTurn records the final answer.
func FinalTurn(thought, answer string) Turn {
	return Turn{Kind: TurnFinal, Thought: thought, Content: answer}
}

// Render formats the turn in the ReAct text protocol.
func (t Turn) Render() string {
	var b strings.Builder
	switch t.Kind {
	case TurnGoal:
		b.WriteString("Question: ")
		b.WriteString(t.Content)
	case TurnAction:
		if t.Thought != "" {
			b.WriteString("Thought: ")
			b.WriteString(t.Thought)
			b.WriteString("\n")
		}
		b.WriteString("Action: ")
		b.WriteString(t.ToolName)
		b.WriteString("\nAction Input: ")
		b.WriteString(t.ToolInput)
	case TurnMalformed:
		b.WriteString(strings.TrimSpace(t.Content))
	case TurnObservation:
		b.WriteString("Observation: ")
		b.WriteString(t.Content)
	case TurnFinal:
		if t.Thought != "" {
			b.WriteString("Thought: ")
			b.WriteString(t.Thought)
			b.WriteString("\n")
		}
		b.WriteString("Final Answer: ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// IsModelTurn reports whether the turn was produced by the model.
func (t Turn) IsModelTurn() bool {
	return t.Kind == TurnAction || t.Kind == TurnMalformed || t.Kind == TurnFinal
}

// Transcript is the ordered record of a run. It is owned by one run and is
// not safe for concurrent use.
type Transcript struct {
	turns []Turn
}

// NewTranscript starts a transcript with the goal turn.
func NewTranscript(goal string) *Transcript {
	return &Transcript{turns: []Turn{GoalTurn(goal)}}
}

// Append adds a turn. Turns are never edited or removed.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Goal returns the goal the transcript was started with.
func (t *Transcript) Goal() string {
	return t.turns[0].Content
}

// Turns returns a copy of all turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns, goal included.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the most recent turn.
func (t *Transcript) Last() Turn {
	return t.turns[len(t.turns)-1]
}

// Finished reports whether the last turn is a final answer.
func (t *Transcript) Finished() bool {
	return t.Last().Kind == TurnFinal
}

// Render returns the whole transcript as ReAct text, one turn per block.
func (t *Transcript) Render() string {
	parts := make([]string, len(t.turns))
	for i, turn := range t.turns {
		parts[i] = turn.Render()
	}
	return strings.Join(parts, "\n")
}
