package session

import (
	"context"
	"fmt"

	"github.com/samsaffron/course-llm/internal/llm"
)

// Transcript is the ordered conversation history of one session. It never
// holds the system instruction; Conversation adds it for outbound calls.
// A Transcript is owned by a single session and is not safe for concurrent
// use.
type Transcript struct {
	messages []llm.Message
}

// NewTranscript returns a transcript holding msgs. System messages are
// rejected.
func NewTranscript(msgs ...llm.Message) (*Transcript, error) {
	t := &Transcript{}
	if err := t.Replace(msgs); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of stored messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns a copy of the stored messages in order.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Append adds one user or assistant message.
func (t *Transcript) Append(msg llm.Message) error {
	if err := checkStorable(msg); err != nil {
		return err
	}
	t.messages = append(t.messages, msg)
	return nil
}

// Reset discards every message.
func (t *Transcript) Reset() {
	t.messages = nil
}

// Replace swaps the whole history for msgs. On error the transcript is left
// untouched.
func (t *Transcript) Replace(msgs []llm.Message) error {
	for i, msg := range msgs {
		if err := checkStorable(msg); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	replaced := make([]llm.Message, len(msgs))
	copy(replaced, msgs)
	t.messages = replaced
	return nil
}

// Conversation returns the outbound request: the system instruction followed
// by the stored messages. The transcript itself is not modified.
func (t *Transcript) Conversation(system string) []llm.Message {
	out := make([]llm.Message, 0, len(t.messages)+1)
	out = append(out, llm.SystemText(system))
	out = append(out, t.messages...)
	return out
}

// Ask runs one turn: the question is appended, the bridge is called with the
// full conversation and the reply, or a diagnostic standing in for it, is
// appended as the assistant message. ok is false when the request failed.
func (t *Transcript) Ask(ctx context.Context, bridge *llm.Bridge, system, question string) (reply string, ok bool) {
	t.messages = append(t.messages, llm.UserText(question))
	reply, ok = bridge.Reply(ctx, t.Conversation(system))
	t.messages = append(t.messages, llm.AssistantText(reply))
	return reply, ok
}

func checkStorable(msg llm.Message) error {
	switch msg.Role {
	case llm.RoleUser, llm.RoleAssistant:
		return nil
	case llm.RoleSystem:
		return fmt.Errorf("system messages are not stored in a transcript")
	default:
		return fmt.Errorf("unknown role %q", msg.Role)
	}
}
