package chat

import (
	"github.com/samsaffron/course-llm/internal/llm"
)

// Server->client event types.
const (
	EventSessionReady     = "session_ready"
	EventCatchup          = "catchup"
	EventUserMessage      = "user_message"
	EventAssistantMessage = "assistant_message"
	EventResetDone        = "reset_done"
	EventImportDone       = "import_done"
	EventExport           = "export"
	EventError            = "error"
)

// Client->server event types.
const (
	ClientMessage = "message"
	ClientReset   = "reset"
	ClientExport  = "export"
	ClientImport  = "import"
)

// Export formats accepted in ClientEvent.Format.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// WireEvent is the JSON envelope sent server->client.
// Every event except session_ready and catchup has a Seq, monotonic for
// the life of the session, for catchup replay.
type WireEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`

	// session_ready
	SessionID  string `json:"session_id,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	ExportName string `json:"export_name,omitempty"`
	// Resumed means History is omitted; the client keeps what it shows
	// and applies the catchup event that follows.
	Resumed bool `json:"resumed,omitempty"`

	// session_ready / import_done
	History []HistoryItem `json:"history,omitempty"`

	// catchup
	Events []WireEvent `json:"events,omitempty"`

	// user_message / assistant_message
	Text   string `json:"text,omitempty"`
	HTML   string `json:"html,omitempty"`
	Failed bool   `json:"failed,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// export
	Filename string `json:"filename,omitempty"`
	MIME     string `json:"mime,omitempty"`
	Data     string `json:"data,omitempty"`
}

type HistoryItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// ClientEvent is the JSON envelope sent client->server.
type ClientEvent struct {
	Type string `json:"type"`

	// message
	Text string `json:"text,omitempty"`

	// export
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`

	// import
	Data string `json:"data,omitempty"`
}

// toHistory converts transcript messages for display. Assistant text is
// rendered to HTML; user text is left for the client to escape.
func toHistory(messages []llm.Message) []HistoryItem {
	items := make([]HistoryItem, 0, len(messages))
	for _, msg := range messages {
		item := HistoryItem{Role: string(msg.Role), Text: msg.Content}
		if msg.Role == llm.RoleAssistant {
			item.HTML = RenderMarkdown(msg.Content)
		}
		items = append(items, item)
	}
	return items
}
