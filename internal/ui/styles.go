package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color palette - consistent across all terminal output
var (
	Green = lipgloss.Color("10") // success
	Red   = lipgloss.Color("9")  // error, diagnostics
	Grey  = lipgloss.Color("8")  // muted text
	Blue  = lipgloss.Color("4")  // user label
	Cyan  = lipgloss.Color("6")  // assistant label
	White = lipgloss.Color("15") // header text
)

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
)

// Styles holds the text styles for one output, bound to its color profile
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output io.Writer) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: r.NewStyle().
			Foreground(Grey),

		Success: r.NewStyle().
			Foreground(Green),

		Error: r.NewStyle().
			Foreground(Red),

		Muted: r.NewStyle().
			Foreground(Grey),

		User: r.NewStyle().
			Bold(true).
			Foreground(Blue),

		Assistant: r.NewStyle().
			Bold(true).
			Foreground(Cyan),
	}
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether w is a terminal that accepts colors.
// NO_COLOR and CLICOLOR are honoured.
func ColorEnabled(w io.Writer) bool {
	if !IsTerminal(w) {
		return false
	}
	return termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
}

// Width returns the terminal width of w, or fallback when unknown.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Truncate shortens a string to maxLen display columns with ellipsis
func Truncate(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}
