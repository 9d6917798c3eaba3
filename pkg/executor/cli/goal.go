package cli

import "strings"

var sentinels = map[string]struct{}{
	"x":    {},
	"sair": {},
	"exit": {},
	"quit": {},
}

// IsSentinel reports whether input ends the session. Matching ignores case
// and surrounding whitespace.
func IsSentinel(input string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(input))]
	return ok
}
