package prompt

// Evening is one session of the course syllabus.
type Evening struct {
	Number int
	Title  string
}

// Syllabus lists the course evenings shown next to the chat.
var Syllabus = []Evening{
	{1, "Grundlagen & No-Code"},
	{2, "Python & Deployment"},
	{3, "LangChain & RAG"},
	{4, "Fortgeschrittene Konzepte"},
	{5, "Eigene Projekte"},
	{6, "Präsentationen"},
}

// Capabilities describes what the assistant helps with.
var Capabilities = []string{
	"**Kursinhalten** und Konzepten",
	"**Übungen** und Aufgaben",
	"**Tools** und Technologien",
	"**Troubleshooting** bei Problemen",
}
