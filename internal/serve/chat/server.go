package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samsaffron/course-llm/internal/llm"
	"github.com/samsaffron/course-llm/internal/session"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	gcInterval         = 5 * time.Minute
	// maxFrameSize bounds a single client frame; imports travel inline.
	maxFrameSize = 12 << 20
)

// Session tracks one browser chat: its transcript plus the events buffered
// for catchup replay after a reconnect.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActiveAt time.Time
	EventBuf     []WireEvent
	NextSeq      int64

	transcript *session.Transcript
	messages   int
	busy       bool
	mu         sync.Mutex
	// opMu serializes transcript operations; mu only guards the fields above.
	opMu    sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// Options configures a SessionManager.
type Options struct {
	Bridge       *llm.Bridge
	SystemPrompt string
	Logger       *slog.Logger
	// IdleTimeout is how long a disconnected session is kept. Zero means 30 minutes.
	IdleTimeout time.Duration
}

// SessionManager manages active browser chat sessions. Sessions share the
// bridge; each owns its transcript.
type SessionManager struct {
	sessions     map[string]*Session
	mu           sync.RWMutex
	bridge       *llm.Bridge
	systemPrompt string
	idleTimeout  time.Duration
	logger       *slog.Logger
}

// NewSessionManager creates a session manager using the supplied options.
func NewSessionManager(opts Options) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = llm.NewBridge(nil, logger)
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &SessionManager{
		sessions:     make(map[string]*Session),
		bridge:       bridge,
		systemPrompt: opts.SystemPrompt,
		idleTimeout:  idle,
		logger:       logger,
	}
}

// HTTPHandler returns an http.Handler serving the page and the chat endpoints.
func (m *SessionManager) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleIndex)
	mux.HandleFunc("/healthz", m.handleHealth)
	mux.HandleFunc("/chat/sessions", m.handleListSessions)
	mux.HandleFunc("/chat/sessions/new", m.handleNewSession)
	mux.HandleFunc("/chat/sessions/", m.handleResumeSession)
	return mux
}

// providerInfo returns the display name and model of the bridge's provider.
func (m *SessionManager) providerInfo() (string, string) {
	p := m.bridge.Provider()
	if p == nil {
		return "", ""
	}
	return p.Kind().DisplayName(), p.Model()
}

// SessionCount returns the number of live sessions.
func (m *SessionManager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartGC starts background GC for inactive sessions.
func (m *SessionManager) StartGC(ctx context.Context) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.gcSessions()
		case <-ctx.Done():
			return
		}
	}
}

func (m *SessionManager) gcSessions() {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		sess.mu.Lock()
		inactive := sess.LastActiveAt.Before(cutoff)
		busy := sess.busy
		connected := sess.conn != nil
		sess.mu.Unlock()
		if inactive && !busy && !connected {
			delete(m.sessions, id)
			m.logger.Debug("session expired", "id", id)
		}
	}
}

func (m *SessionManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	provider, model := m.providerInfo()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": provider,
		"model":    model,
		"sessions": m.SessionCount(),
	})
}

func (m *SessionManager) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]map[string]any, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sess.mu.Lock()
		item := map[string]any{
			"id":          sess.ID,
			"created":     sess.CreatedAt.Format(time.RFC3339Nano),
			"last_active": sess.LastActiveAt.Format(time.RFC3339Nano),
			"messages":    sess.messages,
			"connected":   sess.conn != nil,
		}
		sess.mu.Unlock()
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": items})
}

func (m *SessionManager) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conn, err := m.upgrade(w, r)
	if err != nil {
		return
	}

	sess := m.newSession()
	m.attachSession(sess, conn, 0)
	m.runSessionLoop(r.Context(), sess, conn)
}

func (m *SessionManager) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/chat/sessions/")
	id = strings.Trim(id, "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	m.mu.RLock()
	sess := m.sessions[id]
	m.mu.RUnlock()
	if sess == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := m.upgrade(w, r)
	if err != nil {
		return
	}

	since := int64(0)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		if parsed, err := strconv.ParseInt(sinceStr, 10, 64); err == nil {
			since = parsed
		}
	}
	m.attachSession(sess, conn, since)

	m.runSessionLoop(r.Context(), sess, conn)
}

// runSessionLoop handles client events until the connection closes. Each
// event is processed to completion before the next one is read.
func (m *SessionManager) runSessionLoop(ctx context.Context, sess *Session, conn *websocket.Conn) {
	readCh := make(chan ClientEvent)
	go func() {
		defer close(readCh)
		for {
			var ev ClientEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			readCh <- ev
		}
	}()

	for ev := range readCh {
		m.touch(sess)

		switch ev.Type {
		case ClientMessage:
			if strings.TrimSpace(ev.Text) == "" {
				continue
			}
			m.handleMessage(ctx, sess, ev.Text)
		case ClientReset:
			m.resetSession(sess)
		case ClientExport:
			m.exportSession(sess, ev.Name, ev.Format)
		case ClientImport:
			m.importSession(sess, ev.Data)
		default:
			m.writeError(sess, fmt.Sprintf("unknown event type %q", ev.Type))
		}
	}

	m.detachConn(sess, conn)
}

// handleMessage runs one chat turn. A failed request still produces an
// assistant message carrying the diagnostic text.
func (m *SessionManager) handleMessage(ctx context.Context, sess *Session, text string) {
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	m.setBusy(sess, true)
	defer m.setBusy(sess, false)

	m.writeStreamEvent(sess, WireEvent{Type: EventUserMessage, Text: text})
	reply, ok := sess.transcript.Ask(ctx, m.bridge, m.systemPrompt, text)
	if !ok {
		m.logger.Info("chat turn failed", "session", sess.ID, "diagnostic", reply)
	}
	m.syncCount(sess)
	m.writeStreamEvent(sess, WireEvent{
		Type:   EventAssistantMessage,
		Text:   reply,
		HTML:   RenderMarkdown(reply),
		Failed: !ok,
	})
}

func (m *SessionManager) resetSession(sess *Session) {
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	sess.transcript.Reset()
	sess.mu.Lock()
	sess.EventBuf = nil
	sess.messages = 0
	sess.mu.Unlock()
	m.writeStreamEvent(sess, WireEvent{Type: EventResetDone})
}

func (m *SessionManager) importSession(sess *Session, data string) {
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	if err := sess.transcript.Import(strings.NewReader(data)); err != nil {
		m.logger.Info("import rejected", "session", sess.ID, "error", err)
		m.writeError(sess, err.Error())
		return
	}
	m.syncCount(sess)
	m.writeStreamEvent(sess, WireEvent{
		Type:    EventImportDone,
		History: toHistory(sess.transcript.Messages()),
	})
}

func (m *SessionManager) exportSession(sess *Session, name, format string) {
	sess.opMu.Lock()
	messages := sess.transcript.Messages()
	sess.opMu.Unlock()

	now := time.Now()
	ev := WireEvent{Type: EventExport}
	switch format {
	case "", FormatJSON:
		var buf bytes.Buffer
		if err := session.WriteJSON(&buf, messages); err != nil {
			m.writeError(sess, err.Error())
			return
		}
		ev.Filename = session.ExportFilename(name, "json", now)
		ev.MIME = "application/json"
		ev.Data = buf.String()
	case FormatMarkdown:
		provider, model := m.providerInfo()
		ev.Filename = session.ExportFilename(name, "md", now)
		ev.MIME = "text/markdown; charset=utf-8"
		ev.Data = session.ExportMarkdown(session.MarkdownMeta{
			Provider:   provider,
			Model:      model,
			ExportedAt: now,
		}, messages)
	default:
		m.writeError(sess, fmt.Sprintf("unknown export format %q", format))
		return
	}
	m.writeStreamEvent(sess, ev)
}

func (m *SessionManager) newSession() *Session {
	id := uuid.NewString()
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	now := time.Now()
	sess := &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		NextSeq:      1,
		transcript:   &session.Transcript{},
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	m.logger.Debug("session created", "id", id)
	return sess
}

func (m *SessionManager) touch(sess *Session) {
	sess.mu.Lock()
	sess.LastActiveAt = time.Now()
	sess.mu.Unlock()
}

func (m *SessionManager) setBusy(sess *Session, busy bool) {
	sess.mu.Lock()
	sess.busy = busy
	sess.mu.Unlock()
}

// syncCount records the transcript length for listings. Callers hold opMu.
func (m *SessionManager) syncCount(sess *Session) {
	n := sess.transcript.Len()
	sess.mu.Lock()
	sess.messages = n
	sess.mu.Unlock()
}

// attachConn makes conn the session's connection, closing any previous one.
func (m *SessionManager) attachConn(sess *Session, conn *websocket.Conn) {
	sess.mu.Lock()
	prev := sess.conn
	sess.conn = conn
	sess.LastActiveAt = time.Now()
	sess.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

func (m *SessionManager) detachConn(sess *Session, conn *websocket.Conn) {
	_ = conn.Close()
	sess.mu.Lock()
	if sess.conn == conn {
		sess.conn = nil
	}
	sess.LastActiveAt = time.Now()
	sess.mu.Unlock()
}

// attachSession makes conn the session's connection and greets it. A client
// that saw events up to since gets only what it missed when the buffer still
// covers the gap; otherwise it gets the full history. Holding opMu keeps a
// running turn from writing to conn before session_ready.
func (m *SessionManager) attachSession(sess *Session, conn *websocket.Conn, since int64) {
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	m.attachConn(sess, conn)

	provider, model := m.providerInfo()
	ready := WireEvent{
		Seq:        0,
		Type:       EventSessionReady,
		SessionID:  sess.ID,
		Provider:   provider,
		Model:      model,
		ExportName: session.ExportName(time.Now()),
	}
	missed, resumed := sess.missedEvents(since)
	if resumed {
		ready.Resumed = true
	} else {
		ready.History = toHistory(sess.transcript.Messages())
	}
	m.writeDirect(sess, ready)
	if len(missed) > 0 {
		m.writeDirect(sess, WireEvent{Seq: 0, Type: EventCatchup, Events: missed})
	}
}

// missedEvents returns the buffered events after since. ok is false when
// since is unset or the buffer no longer reaches back to since.
func (s *Session) missedEvents(since int64) (events []WireEvent, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if since <= 0 || since >= s.NextSeq {
		return nil, false
	}
	if len(s.EventBuf) == 0 {
		return nil, since == s.NextSeq-1
	}
	if s.EventBuf[0].Seq > since+1 {
		return nil, false
	}
	for _, evt := range s.EventBuf {
		if evt.Seq > since {
			events = append(events, evt)
		}
	}
	return events, true
}

// writeStreamEvent assigns the next sequence number, buffers the event for
// catchup and sends it if a client is connected.
func (m *SessionManager) writeStreamEvent(sess *Session, ev WireEvent) {
	sess.mu.Lock()
	seq := sess.NextSeq
	sess.NextSeq++
	ev.Seq = seq
	sess.EventBuf = append(sess.EventBuf, ev)
	sess.mu.Unlock()

	m.writeDirect(sess, ev)
}

func (m *SessionManager) writeDirect(sess *Session, ev WireEvent) {
	sess.mu.Lock()
	conn := sess.conn
	sess.mu.Unlock()
	if conn == nil {
		return
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := writeEvent(conn, ev); err != nil {
		m.logger.Debug("write failed", "session", sess.ID, "type", ev.Type, "error", err)
	}
}

func (m *SessionManager) writeError(sess *Session, message string) {
	m.writeStreamEvent(sess, WireEvent{Type: EventError, Message: message})
}

func (m *SessionManager) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Debug("websocket upgrade failed", "error", err)
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return conn, nil
}

func writeEvent(conn *websocket.Conn, e WireEvent) error {
	if conn == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
