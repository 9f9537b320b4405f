package llm

import (
	"context"
	"time"
)

// ProviderKind identifies one of the supported LLM vendors. The resolver
// prefers kinds in the order of Precedence.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
)

// Precedence is the order in which credentials are considered.
var Precedence = []ProviderKind{ProviderOpenAI, ProviderAnthropic}

func (k ProviderKind) String() string {
	return string(k)
}

// DisplayName returns the vendor name shown to users.
func (k ProviderKind) DisplayName() string {
	switch k {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return string(k)
	}
}

// Provider is an initialized client bound to one vendor and one credential.
// Implementations are safe for concurrent use and never mutated after
// construction.
type Provider interface {
	Name() string
	Kind() ProviderKind
	Model() string
	// Complete sends the conversation and returns the reply text.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ProviderOptions are the static generation settings of a provider. Zero
// values select the provider defaults.
type ProviderOptions struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	BaseURL     string
	Timeout     time.Duration
}
