package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DiagnosticPrefix starts every reply that stands in for a failed request.
const DiagnosticPrefix = "Fehler bei der AI-Anfrage: "

// NoProviderText is shown when a session has no usable provider.
const NoProviderText = "Kein gültiger AI-Client initialisiert."

var (
	errEmptyConversation = errors.New("conversation is empty")
	errNoProvider        = errors.New("no provider configured")
)

// RequestError wraps any failure of a single chat request: invalid input,
// network failure, authentication rejection or a malformed response.
type RequestError struct {
	Provider ProviderKind
	Err      error
}

func (e *RequestError) Error() string {
	if e.Provider == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DiagnosticText renders a request failure as assistant text so a
// conversation always gets a reply.
func DiagnosticText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, errNoProvider) {
		return NoProviderText
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return DiagnosticPrefix + reqErr.Err.Error()
	}
	return DiagnosticPrefix + err.Error()
}

// Bridge sends uniform conversations to a provider, one blocking request
// per call. No retries and no streaming.
type Bridge struct {
	provider Provider
	logger   *slog.Logger
}

func NewBridge(provider Provider, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{provider: provider, logger: logger}
}

func (b *Bridge) Provider() Provider {
	return b.provider
}

// Send validates the conversation, issues the request and returns the reply
// text. Every failure is a *RequestError.
func (b *Bridge) Send(ctx context.Context, conversation []Message) (string, error) {
	if b.provider == nil {
		return "", &RequestError{Err: errNoProvider}
	}
	kind := b.provider.Kind()
	if err := validateConversation(conversation); err != nil {
		return "", &RequestError{Provider: kind, Err: err}
	}

	start := time.Now()
	b.logger.Debug("sending chat request",
		"provider", kind,
		"model", b.provider.Model(),
		"messages", len(conversation),
		"user", truncate(lastUserText(conversation), 80))

	text, err := b.provider.Complete(ctx, conversation)
	if err != nil {
		b.logger.Warn("chat request failed", "provider", kind, "duration", time.Since(start), "error", err)
		return "", &RequestError{Provider: kind, Err: err}
	}
	b.logger.Debug("chat request done", "provider", kind, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// Reply is Send for callers that always need displayable text: failures
// come back as DiagnosticText. ok reports whether the request succeeded.
func (b *Bridge) Reply(ctx context.Context, conversation []Message) (text string, ok bool) {
	text, err := b.Send(ctx, conversation)
	if err != nil {
		return DiagnosticText(err), false
	}
	return text, true
}

func validateConversation(conversation []Message) error {
	if len(conversation) == 0 {
		return errEmptyConversation
	}
	systems := 0
	for i, msg := range conversation {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d has unknown role %q", i, msg.Role)
		}
		if msg.Role == RoleSystem {
			systems++
		}
	}
	if systems > 1 {
		return fmt.Errorf("conversation has %d system messages, want at most 1", systems)
	}
	return nil
}

func lastUserText(conversation []Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == RoleUser {
			return conversation[i].Content
		}
	}
	return ""
}
