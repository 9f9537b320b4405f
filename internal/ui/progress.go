package ui

import (
	"fmt"
	"strings"
	"time"
)

// WaitingIndicator renders the status line shown while a request is in flight
type WaitingIndicator struct {
	Spinner    string // spinner.View() output
	Phase      string // "Denke nach", ...
	Elapsed    time.Duration
	ShowCancel bool // show "(ctrl+c to cancel)"
}

// Render returns the formatted indicator string
func (s WaitingIndicator) Render(styles *Styles) string {
	var b strings.Builder

	b.WriteString(s.Spinner)
	b.WriteString(" ")
	b.WriteString(s.Phase)
	b.WriteString("...")
	b.WriteString(fmt.Sprintf(" %.1fs", s.Elapsed.Seconds()))

	if s.ShowCancel {
		b.WriteString(" ")
		b.WriteString(styles.Muted.Render("(ctrl+c to cancel)"))
	}

	return b.String()
}
