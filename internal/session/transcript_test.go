package session

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/course-llm/internal/llm"
)

const testSystem = "Du bist ein hilfreicher AI-Assistent."

func TestNewTranscriptRejectsSystem(t *testing.T) {
	if _, err := NewTranscript(llm.SystemText("x")); err == nil {
		t.Fatal("expected error for system message")
	}
	tr, err := NewTranscript(llm.UserText("hi"), llm.AssistantText("hallo"))
	if err != nil {
		t.Fatalf("NewTranscript: %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
}

func TestAppendRejectsNonConversationalRoles(t *testing.T) {
	tr := &Transcript{}
	if err := tr.Append(llm.SystemText("sys")); err == nil {
		t.Fatal("expected system message to be rejected")
	}
	if err := tr.Append(llm.Message{Role: "tool", Content: "x"}); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tr.Len())
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("a"))
	msgs := tr.Messages()
	msgs[0].Content = "changed"
	if tr.Messages()[0].Content != "a" {
		t.Fatal("Messages() exposed internal storage")
	}
}

func TestConversationPrependsSystemWithoutStoringIt(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("q1"), llm.AssistantText("a1"))

	conv := tr.Conversation(testSystem)
	want := []llm.Message{
		llm.SystemText(testSystem),
		llm.UserText("q1"),
		llm.AssistantText("a1"),
	}
	if !reflect.DeepEqual(conv, want) {
		t.Fatalf("Conversation() = %#v, want %#v", conv, want)
	}

	conv[1].Content = "mutated"
	if tr.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tr.Len())
	}
	for _, m := range tr.Messages() {
		if m.Role == llm.RoleSystem {
			t.Fatal("transcript stored a system message")
		}
		if m.Content == "mutated" {
			t.Fatal("Conversation() shares storage with transcript")
		}
	}
}

func TestResetIsIdempotent(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("a"), llm.AssistantText("b"))
	tr.Reset()
	if tr.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", tr.Len())
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Fatalf("Len() after second Reset = %d", tr.Len())
	}
	conv := tr.Conversation(testSystem)
	if len(conv) != 1 || conv[0].Role != llm.RoleSystem {
		t.Fatalf("Conversation() after Reset = %#v", conv)
	}
}

func TestReplaceIsAtomic(t *testing.T) {
	tr, _ := NewTranscript(llm.UserText("keep"))
	err := tr.Replace([]llm.Message{llm.UserText("new"), llm.SystemText("bad")})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := tr.Messages(); len(got) != 1 || got[0].Content != "keep" {
		t.Fatalf("transcript changed on failed Replace: %#v", got)
	}
}

func TestAskAppendsTurn(t *testing.T) {
	provider := llm.NewMockProvider(llm.ProviderOpenAI).
		AddTextResponse("RAG kombiniert Retrieval und Generation.")
	bridge := llm.NewBridge(provider, nil)
	tr := &Transcript{}

	reply, ok := tr.Ask(context.Background(), bridge, testSystem, "Was ist RAG?")
	if !ok {
		t.Fatalf("Ask() failed: %q", reply)
	}
	if reply != "RAG kombiniert Retrieval und Generation." {
		t.Fatalf("reply = %q", reply)
	}

	want := []llm.Message{
		llm.UserText("Was ist RAG?"),
		llm.AssistantText("RAG kombiniert Retrieval und Generation."),
	}
	if got := tr.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("transcript = %#v, want %#v", got, want)
	}

	sent := provider.LastRequest()
	wantSent := []llm.Message{llm.SystemText(testSystem), llm.UserText("Was ist RAG?")}
	if !reflect.DeepEqual(sent, wantSent) {
		t.Fatalf("sent = %#v, want %#v", sent, wantSent)
	}
}

func TestAskSendsFullHistory(t *testing.T) {
	provider := llm.NewMockProvider(llm.ProviderAnthropic).
		AddTextResponse("eins").
		AddTextResponse("zwei")
	bridge := llm.NewBridge(provider, nil)
	tr := &Transcript{}

	tr.Ask(context.Background(), bridge, testSystem, "erste Frage")
	tr.Ask(context.Background(), bridge, testSystem, "zweite Frage")

	sent := provider.LastRequest()
	if len(sent) != 4 {
		t.Fatalf("second request has %d messages, want 4", len(sent))
	}
	if sent[2].Content != "eins" || sent[3].Content != "zweite Frage" {
		t.Fatalf("unexpected second request: %#v", sent)
	}
	if tr.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tr.Len())
	}
}

func TestAskTimeoutStoresDiagnostic(t *testing.T) {
	provider := llm.NewMockProvider(llm.ProviderOpenAI).
		AddTurn(llm.MockTurn{Text: "zu spät", Delay: time.Second})
	bridge := llm.NewBridge(provider, nil)
	tr := &Transcript{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	reply, ok := tr.Ask(ctx, bridge, testSystem, "Hallo?")
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(reply, llm.DiagnosticPrefix) {
		t.Fatalf("reply = %q, want diagnostic prefix", reply)
	}
	msgs := tr.Messages()
	if len(msgs) != 2 || msgs[1].Role != llm.RoleAssistant || msgs[1].Content != reply {
		t.Fatalf("transcript = %#v", msgs)
	}
}

func TestAskWithoutProvider(t *testing.T) {
	tr := &Transcript{}
	reply, ok := tr.Ask(context.Background(), llm.NewBridge(nil, nil), testSystem, "Hallo")
	if ok {
		t.Fatal("expected failure")
	}
	if reply != llm.NoProviderText {
		t.Fatalf("reply = %q, want %q", reply, llm.NoProviderText)
	}
}
