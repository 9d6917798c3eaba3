// Package sentiment provides a lexicon-based polarity analyzer and the
// Analyze_Sentiment tool built on it.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Label thresholds. Polarity strictly above PositiveThreshold is positive,
// strictly below NegativeThreshold negative, anything else neutral.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1

	// negationFactor flips and dampens a negated word, so "not good" is
	// mildly negative rather than the opposite of good.
	negationFactor = -0.5
	negationWindow = 3
)

// Label is the discrete class of a polarity score.
type Label string

const (
	Positive Label = "POSITIVE"
	Negative Label = "NEGATIVE"
	Neutral  Label = "NEUTRAL"
)

// Classify maps a polarity to its label.
func Classify(polarity float64) Label {
	switch {
	case polarity > PositiveThreshold:
		return Positive
	case polarity < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Score is the result of analyzing a text.
type Score struct {
	Polarity float64
	Label    Label
	// Matches is the number of lexicon words that contributed.
	Matches int
}

// Analyzer scores text against a lexicon. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	lexicon *Lexicon
}

// NewAnalyzer creates an analyzer over a lexicon.
func NewAnalyzer(lexicon *Lexicon) *Analyzer {
	return &Analyzer{lexicon: lexicon}
}

// Analyze returns the mean polarity of the scored words in text, clamped to
// [-1, 1]. Text without scored words is neutral with polarity 0.
func (a *Analyzer) Analyze(text string) Score {
	tokens := tokenize(text)

	var sum float64
	matches := 0
	for i, tok := range tokens {
		polarity, ok := a.lexicon.Words[tok]
		if !ok {
			continue
		}

		if i > 0 {
			if m, ok := a.lexicon.Intensifiers[tokens[i-1]]; ok {
				polarity *= m
			}
		}
		if a.negated(tokens, i) {
			polarity *= negationFactor
		}

		sum += clamp(polarity)
		matches++
	}

	if matches == 0 {
		return Score{Label: Neutral}
	}

	polarity := clamp(sum / float64(matches))
	return Score{Polarity: polarity, Label: Classify(polarity), Matches: matches}
}

// negated reports whether a negation appears in the window before tokens[i].
func (a *Analyzer) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		if a.lexicon.isNegation(tokens[j]) {
			return true
		}
	}
	return false
}

// tokenize lowercases text and splits it into words, keeping apostrophes so
// contractions stay whole.
func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
