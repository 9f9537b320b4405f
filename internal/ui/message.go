package ui

import (
	"strings"

	"github.com/samsaffron/course-llm/internal/llm"
)

// Role labels shown in front of terminal messages.
const (
	UserLabel      = "Du"
	AssistantLabel = "Assistent"
)

// MessageOptions controls how FormatMessage renders a message.
type MessageOptions struct {
	// Highlight colours fenced code blocks in assistant replies.
	Highlight bool
	// Failed marks a diagnostic reply.
	Failed bool
}

// FormatMessage renders one transcript message for the terminal: a styled
// role label followed by the content.
func (s *Styles) FormatMessage(msg llm.Message, opts MessageOptions) string {
	var b strings.Builder
	switch msg.Role {
	case llm.RoleUser:
		b.WriteString(s.User.Render(UserLabel + ":"))
	case llm.RoleAssistant:
		b.WriteString(s.Assistant.Render(AssistantLabel + ":"))
	default:
		b.WriteString(s.Muted.Render(string(msg.Role) + ":"))
	}
	b.WriteString("\n")

	content := msg.Content
	switch {
	case opts.Failed:
		content = s.Error.Render(content)
	case opts.Highlight && msg.Role == llm.RoleAssistant:
		content = HighlightCodeBlocks(content)
	}
	b.WriteString(content)
	return b.String()
}

// FormatHistory renders a transcript summary: one truncated line per message.
func (s *Styles) FormatHistory(messages []llm.Message, width int) string {
	if len(messages) == 0 {
		return s.Muted.Render("(leer)")
	}
	var b strings.Builder
	for i, msg := range messages {
		label := UserLabel
		style := s.User
		if msg.Role == llm.RoleAssistant {
			label = AssistantLabel
			style = s.Assistant
		}
		line := strings.Join(strings.Fields(msg.Content), " ")
		prefix := label + ": "
		avail := width - len(prefix)
		if avail < 10 {
			avail = 10
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(style.Render(prefix))
		b.WriteString(Truncate(line, avail))
	}
	return b.String()
}
