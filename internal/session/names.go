package session

import (
	"strings"
	"time"
	"unicode"
)

const exportNameLayout = "20060102-150405"

// ExportName returns the default download name for a transcript exported at t.
// Format: chat-YYYYMMDD-HHMMSS (e.g., "chat-20240115-143052")
func ExportName(t time.Time) string {
	return "chat-" + t.Format(exportNameLayout)
}

// ParseExportTime extracts the timestamp from a default export name.
// Returns zero time if parsing fails.
func ParseExportTime(name string) time.Time {
	name = strings.TrimSuffix(name, ".json")
	name = strings.TrimSuffix(name, ".md")
	if !strings.HasPrefix(name, "chat-") {
		return time.Time{}
	}
	t, err := time.Parse(exportNameLayout, strings.TrimPrefix(name, "chat-"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// ExportFilename turns a user-supplied name into a safe file name with the
// given extension. Path separators and control characters are replaced; an
// empty result falls back to ExportName(now).
func ExportFilename(name, ext string, now time.Time) string {
	ext = "." + strings.TrimPrefix(ext, ".")
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ext)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '"' || r == '<' || r == '>' || r == '|' || r == '?' || r == '*':
			b.WriteRune('_')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ". ")
	if clean == "" {
		clean = ExportName(now)
	}
	return clean + ext
}
