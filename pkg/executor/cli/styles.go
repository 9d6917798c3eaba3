package cli

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	coralPink   = lipgloss.Color("#FFCCCB")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

// styles are bound to the executor's renderer so color detection follows the
// output writer, not os.Stdout.
type styles struct {
	header   lipgloss.Style
	tips     lipgloss.Style
	prompt   lipgloss.Style
	thought  lipgloss.Style
	action   lipgloss.Style
	result   lipgloss.Style
	failure  lipgloss.Style
	tokens   lipgloss.Style
	verdict  lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *styles {
	return &styles{
		header: r.NewStyle().
			Foreground(salmonPink).
			Bold(true),
		tips: r.NewStyle().
			Foreground(mutedGray),
		prompt: r.NewStyle().
			Foreground(coralPink).
			Bold(true),
		thought: r.NewStyle().
			Foreground(mutedGray).
			Italic(true),
		action: r.NewStyle().
			Foreground(mintGreen),
		result: r.NewStyle().
			Foreground(brightWhite),
		failure: r.NewStyle().
			Foreground(salmonPink),
		tokens: r.NewStyle().
			Foreground(mutedGray),
		verdict: r.NewStyle().
			Bold(true),
		positive: r.NewStyle().
			Foreground(mintGreen).
			Bold(true),
		negative: r.NewStyle().
			Foreground(salmonPink).
			Bold(true),
	}
}
