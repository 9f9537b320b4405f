package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed knowledge.md
var defaultKnowledge string

// DefaultKnowledge returns the built-in course knowledge base.
func DefaultKnowledge() string {
	return defaultKnowledge
}

// LoadKnowledge reads a knowledge base from path, or returns the built-in
// one when path is empty.
func LoadKnowledge(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return defaultKnowledge, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("knowledge file %s is empty", path)
	}
	return string(data), nil
}

// SystemPrompt returns the instruction sent ahead of every conversation.
func SystemPrompt(knowledge string) string {
	return fmt.Sprintf(`Du bist ein hilfreicher AI-Assistent für den AI Development Kurs.
Deine Aufgabe ist es, Fragen der Kursteilnehmer zu beantworten basierend auf folgender
Wissensbasis:
%s
Antworte immer:
- Freundlich und hilfsbereit
- Auf Deutsch
- Präzise und verständlich
- Mit praktischen Beispielen wenn möglich
- Ehrlich, wenn du etwas nicht weisst
Wenn eine Frage nicht direkt mit dem Kurs zusammenhängt, verweise höflich auf den
Kurskontext zurück.`, knowledge)
}
