package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samsaffron/course-llm/internal/llm"
)

// maxImportSize bounds the size of an imported transcript file.
const maxImportSize = 10 << 20

// ImportError reports why a transcript file was rejected. Index is the
// offending element, or -1 when the document as a whole is invalid.
type ImportError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	msg := "Ungültiges Format: erwartet Liste aus {'role','content'}-Objekten"
	if e.Index >= 0 {
		msg += fmt.Sprintf(" (Element %d: %s)", e.Index, e.Reason)
	} else if e.Reason != "" {
		msg += fmt.Sprintf(" (%s)", e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Export writes the transcript as an indented JSON array of
// {"role","content"} objects.
func (t *Transcript) Export(w io.Writer) error {
	return WriteJSON(w, t.messages)
}

// ExportJSON returns the transcript as indented JSON.
func (t *Transcript) ExportJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Export(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes messages the way Export does. Non-ASCII text is written
// as-is.
func WriteJSON(w io.Writer, messages []llm.Message) error {
	if messages == nil {
		messages = []llm.Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}

// Import replaces the transcript with the messages read from r. Nothing is
// changed unless the whole document validates.
func (t *Transcript) Import(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, maxImportSize+1))
	if err != nil {
		return &ImportError{Index: -1, Reason: "read failed", Err: err}
	}
	if len(data) > maxImportSize {
		return &ImportError{Index: -1, Reason: "file too large"}
	}
	messages, err := ParseJSON(data)
	if err != nil {
		return err
	}
	return t.Replace(messages)
}

// ParseJSON validates an exported transcript: a JSON array whose elements
// are objects with string "role" and "content" fields, role being user or
// assistant.
func ParseJSON(data []byte) ([]llm.Message, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Index: -1, Reason: "invalid JSON", Err: err}
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, &ImportError{Index: -1, Reason: "top-level value is not a list"}
	}

	messages := make([]llm.Message, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ImportError{Index: i, Reason: "not an object"}
		}
		role, err := stringField(obj, "role")
		if err != nil {
			return nil, &ImportError{Index: i, Reason: err.Error()}
		}
		content, err := stringField(obj, "content")
		if err != nil {
			return nil, &ImportError{Index: i, Reason: err.Error()}
		}
		msg := llm.Message{Role: llm.Role(role), Content: content}
		if err := checkStorable(msg); err != nil {
			return nil, &ImportError{Index: i, Reason: err.Error()}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string", key)
	}
	return s, nil
}

// MarkdownMeta describes the session in the Markdown export header.
type MarkdownMeta struct {
	Title      string
	Provider   string
	Model      string
	ExportedAt time.Time
}

// escapeTableCell escapes special characters for markdown table cells.
func escapeTableCell(s string) string {
	// Replace pipe characters and newlines which break tables
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// ExportMarkdown renders messages as a readable Markdown document.
func ExportMarkdown(meta MarkdownMeta, messages []llm.Message) string {
	var b strings.Builder

	title := meta.Title
	if title == "" {
		title = "AI Kurs-Assistent"
	}
	b.WriteString(fmt.Sprintf("# Chat: %s\n\n", escapeTableCell(title)))

	b.WriteString("| | |\n")
	b.WriteString("|---|---|\n")
	if meta.Provider != "" {
		b.WriteString(fmt.Sprintf("| **Provider** | %s |\n", escapeTableCell(meta.Provider)))
	}
	if meta.Model != "" {
		b.WriteString(fmt.Sprintf("| **Model** | %s |\n", escapeTableCell(meta.Model)))
	}
	if !meta.ExportedAt.IsZero() {
		b.WriteString(fmt.Sprintf("| **Exported** | %s |\n", meta.ExportedAt.UTC().Format("2006-01-02 15:04 UTC")))
	}
	b.WriteString(fmt.Sprintf("| **Messages** | %d |\n\n", len(messages)))

	b.WriteString("---\n\n")

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleUser:
			b.WriteString("### User\n\n")
		case llm.RoleAssistant:
			b.WriteString("### Assistant\n\n")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n---\n\n")
	}

	return b.String()
}
