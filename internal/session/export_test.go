package session

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/course-llm/internal/llm"
)

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := NewTranscript(
		llm.UserText("Was ist ein Prompt?"),
		llm.AssistantText("Eine Anweisung an das Modell: \"<b>\" & Ümläute."),
	)

	data, err := src.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	dst := &Transcript{}
	if err := dst.Import(bytes.NewReader(data)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(src.Messages(), dst.Messages()) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", dst.Messages(), src.Messages())
	}
}

func TestExportFormat(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("Grüße <x>"))
	data, err := tr.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got := string(data)
	want := "[\n  {\n    \"role\": \"user\",\n    \"content\": \"Grüße <x>\"\n  }\n]\n"
	if got != want {
		t.Fatalf("ExportJSON() =\n%s\nwant\n%s", got, want)
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&Transcript{}).Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("Export() = %q, want []", buf.String())
	}
}

func TestImportInvalidLeavesTranscriptUnchanged(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIndex int
	}{
		{"malformed json", `[{"role": "user"`, -1},
		{"not an array", `{"role": "user", "content": "x"}`, -1},
		{"element not object", `[{"role":"user","content":"a"}, 42]`, 1},
		{"missing role", `[{"content": "x"}]`, 0},
		{"missing content", `[{"role": "user"}]`, 0},
		{"non-string content", `[{"role": "user", "content": 5}]`, 0},
		{"non-string role", `[{"role": null, "content": "x"}]`, 0},
		{"system role", `[{"role":"user","content":"a"},{"role":"system","content":"b"}]`, 1},
		{"unknown role", `[{"role":"tool","content":"a"}]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := NewTranscript(llm.UserText("alt"), llm.AssistantText("bestehend"))
			before := tr.Messages()

			err := tr.Import(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected import error")
			}
			var importErr *ImportError
			if !errors.As(err, &importErr) {
				t.Fatalf("error %T is not *ImportError", err)
			}
			if importErr.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", importErr.Index, tt.wantIndex)
			}
			if !strings.HasPrefix(err.Error(), "Ungültiges Format") {
				t.Errorf("Error() = %q", err.Error())
			}
			if !reflect.DeepEqual(tr.Messages(), before) {
				t.Fatalf("transcript changed: %#v", tr.Messages())
			}
		})
	}
}

func TestImportEmptyListClears(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("alt"))
	if err := tr.Import(strings.NewReader("[]")); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tr.Len())
	}
}

func TestImportIgnoresExtraFields(t *testing.T) {
	tr := &Transcript{}
	err := tr.Import(strings.NewReader(`[{"role":"assistant","content":"ok","ts":1}]`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := tr.Messages(); len(got) != 1 || got[0].Content != "ok" {
		t.Fatalf("Messages() = %#v", got)
	}
}

func TestExportMarkdown(t *testing.T) {
	messages := []llm.Message{
		llm.UserText("Hello, how are you?"),
		llm.AssistantText("I'm doing well, thank you!"),
	}
	meta := MarkdownMeta{
		Provider:   "OpenAI",
		Model:      "gpt-3.5-turbo",
		ExportedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	result := ExportMarkdown(meta, messages)

	for _, want := range []string{
		"# Chat: AI Kurs-Assistent",
		"| **Provider** | OpenAI |",
		"| **Model** | gpt-3.5-turbo |",
		"| **Exported** | 2024-01-15 10:30 UTC |",
		"| **Messages** | 2 |",
		"### User\n\nHello, how are you?",
		"### Assistant\n\nI'm doing well, thank you!",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in output:\n%s", want, result)
		}
	}
	if strings.Index(result, "### User") > strings.Index(result, "### Assistant") {
		t.Error("messages out of order")
	}
}

func TestExportMarkdownEscapesTitle(t *testing.T) {
	result := ExportMarkdown(MarkdownMeta{Title: "a|b\nc", Model: "x|y"}, nil)
	if !strings.Contains(result, "# Chat: a\\|b c") {
		t.Errorf("title not escaped:\n%s", result)
	}
	if !strings.Contains(result, "| **Model** | x\\|y |") {
		t.Errorf("model not escaped:\n%s", result)
	}
	if strings.Contains(result, "**Provider**") {
		t.Error("empty provider should be omitted")
	}
}
