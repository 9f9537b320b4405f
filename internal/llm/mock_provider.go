package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTurn represents a single response from the mock provider.
type MockTurn struct {
	Text  string        // Reply text
	Delay time.Duration // Optional delay before responding (for timeout tests)
	Error error         // Return this error instead of responding
}

// MockProvider is a configurable provider for testing.
// It returns scripted responses and records all requests for verification.
type MockProvider struct {
	kind      ProviderKind
	model     string
	turns     []MockTurn
	turnIndex int
	Requests  [][]Message // Recorded conversations for verification
	mu        sync.Mutex
}

// NewMockProvider creates a mock provider reporting the given kind.
func NewMockProvider(kind ProviderKind) *MockProvider {
	return &MockProvider{kind: kind, model: "mock"}
}

func (m *MockProvider) Name() string {
	return fmt.Sprintf("Mock %s (%s)", m.kind.DisplayName(), m.model)
}

func (m *MockProvider) Kind() ProviderKind {
	return m.kind
}

func (m *MockProvider) Model() string {
	return m.model
}

// AddTurn adds a response turn and returns the provider for chaining.
func (m *MockProvider) AddTurn(t MockTurn) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return m
}

// AddTextResponse is a convenience method to add a simple text response.
func (m *MockProvider) AddTextResponse(text string) *MockProvider {
	return m.AddTurn(MockTurn{Text: text})
}

// AddError adds a turn that returns an error.
func (m *MockProvider) AddError(err error) *MockProvider {
	return m.AddTurn(MockTurn{Error: err})
}

// RequestCount returns how many requests were made.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// LastRequest returns the most recent conversation sent, or nil.
func (m *MockProvider) LastRequest() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// Complete implements the Provider interface.
func (m *MockProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	m.Requests = append(m.Requests, recorded)

	if m.turnIndex >= len(m.turns) {
		m.mu.Unlock()
		return "", fmt.Errorf("mock provider: no more turns configured (expected turn %d, have %d)", m.turnIndex, len(m.turns))
	}
	turn := m.turns[m.turnIndex]
	m.turnIndex++
	m.mu.Unlock()

	if turn.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(turn.Delay):
		}
	}
	if turn.Error != nil {
		return "", turn.Error
	}
	return turn.Text, nil
}
