package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBridgeSendReturnsReply(t *testing.T) {
	mock := NewMockProvider(ProviderOpenAI).AddTextResponse("RAG kombiniert Retrieval und Generation.")
	bridge := NewBridge(mock, nil)

	conversation := []Message{SystemText("Kurswissen"), UserText("Was ist RAG?")}
	text, err := bridge.Send(context.Background(), conversation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "RAG kombiniert Retrieval und Generation." {
		t.Fatalf("text=%q", text)
	}

	req := mock.LastRequest()
	if len(req) != 2 || req[0] != conversation[0] || req[1] != conversation[1] {
		t.Fatalf("provider saw %+v", req)
	}
}

func TestBridgeTimeoutBecomesDiagnostic(t *testing.T) {
	mock := NewMockProvider(ProviderAnthropic).AddError(context.DeadlineExceeded)
	bridge := NewBridge(mock, nil)

	text, ok := bridge.Reply(context.Background(), []Message{UserText("Was ist RAG?")})
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(text, DiagnosticPrefix) {
		t.Fatalf("text=%q, want prefix %q", text, DiagnosticPrefix)
	}
	if !strings.Contains(text, context.DeadlineExceeded.Error()) {
		t.Fatalf("diagnostic should describe the failure, got %q", text)
	}
}

func TestBridgeContextDeadline(t *testing.T) {
	mock := NewMockProvider(ProviderOpenAI).AddTurn(MockTurn{Text: "late", Delay: time.Second})
	bridge := NewBridge(mock, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := bridge.Send(ctx, []Message{UserText("hi")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
}

func TestBridgeValidatesConversation(t *testing.T) {
	tests := []struct {
		name         string
		conversation []Message
	}{
		{name: "empty", conversation: nil},
		{name: "two system messages", conversation: []Message{SystemText("a"), SystemText("b"), UserText("c")}},
		{name: "unknown role", conversation: []Message{{Role: "tool", Content: "x"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := NewMockProvider(ProviderOpenAI)
			bridge := NewBridge(mock, nil)

			_, err := bridge.Send(context.Background(), tc.conversation)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if mock.RequestCount() != 0 {
				t.Fatal("invalid conversation must not reach the provider")
			}
		})
	}
}

func TestBridgeWithoutProvider(t *testing.T) {
	bridge := NewBridge(nil, nil)
	text, ok := bridge.Reply(context.Background(), []Message{UserText("hi")})
	if ok {
		t.Fatal("expected failure")
	}
	if text != NoProviderText {
		t.Fatalf("text=%q", text)
	}
}

func TestDiagnosticText(t *testing.T) {
	if got := DiagnosticText(nil); got != "" {
		t.Fatalf("DiagnosticText(nil)=%q", got)
	}
	plain := errors.New("boom")
	if got := DiagnosticText(plain); got != DiagnosticPrefix+"boom" {
		t.Fatalf("plain error: %q", got)
	}
	wrapped := &RequestError{Provider: ProviderOpenAI, Err: plain}
	if got := DiagnosticText(wrapped); got != DiagnosticPrefix+"boom" {
		t.Fatalf("request error: %q", got)
	}
}
