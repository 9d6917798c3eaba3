package sentiment

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconData []byte

// Lexicon holds word polarities and the modifiers that adjust them.
type Lexicon struct {
	Words        map[string]float64 `yaml:"words"`
	Intensifiers map[string]float64 `yaml:"intensifiers"`
	Negations    []string           `yaml:"negations"`

	negationSet map[string]bool
}

// ParseLexicon reads a lexicon from YAML and validates it.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(lex.Words) == 0 {
		return nil, fmt.Errorf("lexicon has no words")
	}

	words := make(map[string]float64, len(lex.Words))
	for w, p := range lex.Words {
		if p < -1 || p > 1 {
			return nil, fmt.Errorf("polarity of %q out of range [-1, 1]: %v", w, p)
		}
		words[strings.ToLower(w)] = p
	}
	lex.Words = words

	intensifiers := make(map[string]float64, len(lex.Intensifiers))
	for w, m := range lex.Intensifiers {
		if m <= 0 {
			return nil, fmt.Errorf("intensifier %q must be positive: %v", w, m)
		}
		intensifiers[strings.ToLower(w)] = m
	}
	lex.Intensifiers = intensifiers

	lex.negationSet = make(map[string]bool, len(lex.Negations))
	for _, n := range lex.Negations {
		lex.negationSet[strings.ToLower(n)] = true
	}

	return &lex, nil
}

var (
	defaultOnce    sync.Once
	defaultLexicon *Lexicon
	defaultErr     error
)

// DefaultLexicon returns the embedded news lexicon. It is parsed once and
// shared; callers must not modify it.
func DefaultLexicon() (*Lexicon, error) {
	defaultOnce.Do(func() {
		defaultLexicon, defaultErr = ParseLexicon(defaultLexiconData)
	})
	return defaultLexicon, defaultErr
}

// isNegation also recognizes contractions such as "isn't" and "won't".
func (l *Lexicon) isNegation(token string) bool {
	return l.negationSet[token] || strings.HasSuffix(token, "n't")
}
