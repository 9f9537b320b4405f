package llm

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func chooseModel(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}

// truncate shortens s to maxLen display columns for log output. It never
// splits a rune.
func truncate(s string, maxLen int) string {
	return runewidth.Truncate(s, maxLen, "...")
}
