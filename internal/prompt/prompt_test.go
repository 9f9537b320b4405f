package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSystemPromptEmbedsKnowledge(t *testing.T) {
	result := SystemPrompt("WISSEN")
	if !strings.Contains(result, "Wissensbasis:\nWISSEN\n") {
		t.Errorf("knowledge not embedded:\n%s", result)
	}
	if !strings.HasPrefix(result, "Du bist ein hilfreicher AI-Assistent") {
		t.Errorf("unexpected prompt start: %q", result[:40])
	}
	if !strings.Contains(result, "- Auf Deutsch") {
		t.Error("missing answer rules")
	}
}

func TestDefaultKnowledge(t *testing.T) {
	knowledge := DefaultKnowledge()
	for _, want := range []string{"# AI Development Kurs - Wissensbasis", "### Abend 3: LangChain und RAG", "FAISS, ChromaDB, Pinecone"} {
		if !strings.Contains(knowledge, want) {
			t.Errorf("default knowledge missing %q", want)
		}
	}
}

func TestLoadKnowledge(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		got, err := LoadKnowledge("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != DefaultKnowledge() {
			t.Error("expected default knowledge")
		}
	})

	t.Run("file override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kurs.md")
		if err := os.WriteFile(path, []byte("# Eigener Kurs\n"), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := LoadKnowledge(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "# Eigener Kurs\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadKnowledge(filepath.Join(t.TempDir(), "nope.md")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("blank file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.md")
		if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadKnowledge(path); err == nil {
			t.Fatal("expected error for blank file")
		}
	})
}

func TestSyllabusHasSixEvenings(t *testing.T) {
	if len(Syllabus) != 6 {
		t.Fatalf("len(Syllabus)=%d, want 6", len(Syllabus))
	}
	for i, e := range Syllabus {
		if e.Number != i+1 {
			t.Errorf("Syllabus[%d].Number=%d", i, e.Number)
		}
	}
}
