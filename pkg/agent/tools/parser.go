package tools

import (
	"regexp"
	"strings"
)

// Markers of the ReAct text protocol.
const (
	MarkerThought     = "Thought:"
	MarkerAction      = "Action:"
	MarkerActionInput = "Action Input:"
	MarkerObservation = "Observation:"
	MarkerFinalAnswer = "Final Answer:"
)

// Malformed step reasons. They are shown back to the model, so they say what
// is missing in its own vocabulary.
const (
	ReasonNoMarkers        = "missing 'Action:' or 'Final Answer:' after 'Thought:'"
	ReasonMissingToolName  = "missing tool name after 'Action:'"
	ReasonMissingToolInput = "missing 'Action Input:' after 'Action:'"
	ReasonEmptyFinalAnswer = "'Final Answer:' is empty"
)

var (
	actionLinePattern  = regexp.MustCompile(`(?m)^[ \t]*Action[ \t]*:([^\n]*)$`)
	actionInputPattern = regexp.MustCompile(`(?m)^[ \t]*Action[ \t]+Input[ \t]*:`)
	markerPattern      = regexp.MustCompile(`(?m)^[ \t]*(?:Observation|Thought|Action[ \t]+Input|Action|Final Answer)[ \t]*:`)
	thoughtPattern     = regexp.MustCompile(`^\s*Thought[ \t]*:`)
)

// Step is the parsed form of one completion: an *ActionStep, a *FinishStep
// or a *MalformedStep.
type Step interface {
	isStep()
}

// ActionStep asks the loop to invoke a tool.
type ActionStep struct {
	Thought string
	Tool    string
	Input   string
}

// FinishStep ends the run with an answer.
type FinishStep struct {
	Thought string
	Answer  string
}

// MalformedStep is a completion that could not be parsed.
type MalformedStep struct {
	Raw    string
	Reason string
}

func (*ActionStep) isStep()    {}
func (*FinishStep) isStep()    {}
func (*MalformedStep) isStep() {}

// Err returns the parse failure as an error.
func (m *MalformedStep) Err() error {
	return &MalformedOutputError{Reason: m.Reason, Raw: m.Raw}
}

// ParseStep classifies a completion.
//
// The first "Final Answer:" wins over any action, wherever it appears, and the
// answer is everything after it. That includes a marker embedded mid-line, as
// in "Thought: I'll give my Final Answer: later", so such text finishes the run.
//
// Otherwise the first line starting with "Action:" names the tool and the
// following "Action Input:" line supplies the argument, which runs until the
// next marker line or the end of the text. These markers only count at the
// start of a line.
//
// Parsing never fails; unparseable text yields a *MalformedStep.
func ParseStep(text string) Step {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if idx := strings.Index(text, MarkerFinalAnswer); idx >= 0 {
		answer := strings.TrimSpace(text[idx+len(MarkerFinalAnswer):])
		if answer == "" {
			return &MalformedStep{Raw: text, Reason: ReasonEmptyFinalAnswer}
		}
		return &FinishStep{Thought: extractThought(text[:idx]), Answer: answer}
	}

	loc := actionLinePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return &MalformedStep{Raw: text, Reason: ReasonNoMarkers}
	}

	name := strings.TrimSpace(text[loc[2]:loc[3]])
	if name == "" {
		return &MalformedStep{Raw: text, Reason: ReasonMissingToolName}
	}

	rest := text[loc[1]:]
	inputLoc := actionInputPattern.FindStringIndex(rest)
	if inputLoc == nil {
		return &MalformedStep{Raw: text, Reason: ReasonMissingToolInput}
	}

	input := rest[inputLoc[1]:]
	if end := markerPattern.FindStringIndex(input); end != nil {
		input = input[:end[0]]
	}

	return &ActionStep{
		Thought: extractThought(text[:loc[0]]),
		Tool:    name,
		Input:   strings.TrimSpace(input),
	}
}

// extractThought returns the reasoning that precedes a marker, without its
// "Thought:" prefix.
func extractThought(prefix string) string {
	if loc := thoughtPattern.FindStringIndex(prefix); loc != nil {
		prefix = prefix[loc[1]:]
	}
	return strings.TrimSpace(prefix)
}
