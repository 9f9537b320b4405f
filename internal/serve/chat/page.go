package chat

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/samsaffron/course-llm/internal/prompt"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Title        string
	Provider     string
	Model        string
	Capabilities []template.HTML
	Syllabus     []prompt.Evening
}

func (m *SessionManager) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	provider, model := m.providerInfo()
	data := pageData{
		Title:    "AI Kurs-Assistent",
		Provider: provider,
		Model:    model,
		Syllabus: prompt.Syllabus,
	}
	for _, c := range prompt.Capabilities {
		// Capability strings are trusted constants with inline Markdown.
		data.Capabilities = append(data.Capabilities, template.HTML(RenderInline(c)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		m.logger.Error("render index", "error", err)
	}
}
