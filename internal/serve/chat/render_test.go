package chat

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**fett**", "<strong>fett</strong>"},
		{"```python\nprint(1)\n```", "<code class=\"language-python\">"},
		{"| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
		{"Zeile 1\nZeile 2", "<br"},
	}
	for _, tt := range tests {
		if got := RenderMarkdown(tt.in); !strings.Contains(got, tt.want) {
			t.Errorf("RenderMarkdown(%q) = %q, want it to contain %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	got := RenderMarkdown("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw HTML passed through: %q", got)
	}
}

func TestRenderInline(t *testing.T) {
	if got := RenderInline("**Tools** und Technologien"); got != "<strong>Tools</strong> und Technologien" {
		t.Fatalf("RenderInline() = %q", got)
	}
}
