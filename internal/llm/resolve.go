package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samsaffron/course-llm/internal/config"
)

// ErrNoCredential is returned when neither provider has an API key.
var ErrNoCredential = errors.New("no API key found: set OPENAI_API_KEY or ANTHROPIC_API_KEY")

// ConfigError reports that a provider was selected but its client could not
// be constructed. It is fatal: the resolver never falls through to the next
// provider.
type ConfigError struct {
	Provider ProviderKind
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s provider unavailable: %v", e.Provider.DisplayName(), e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Factory constructs a provider handle from its options.
type Factory func(opts ProviderOptions) (Provider, error)

// DefaultFactories returns the SDK-backed constructors for every kind.
func DefaultFactories() map[ProviderKind]Factory {
	return map[ProviderKind]Factory{
		ProviderOpenAI: func(opts ProviderOptions) (Provider, error) {
			return NewOpenAIProvider(opts), nil
		},
		ProviderAnthropic: func(opts ProviderOptions) (Provider, error) {
			return NewAnthropicProvider(opts), nil
		},
	}
}

// Resolver picks exactly one provider from the available credentials.
type Resolver struct {
	factories map[ProviderKind]Factory
}

func NewResolver(factories map[ProviderKind]Factory) *Resolver {
	if factories == nil {
		factories = DefaultFactories()
	}
	return &Resolver{factories: factories}
}

// Resolve walks Precedence and builds the first provider whose credential is
// present. Only that provider's factory is invoked.
func (r *Resolver) Resolve(cfg *config.Config) (Provider, error) {
	for _, kind := range Precedence {
		pc, ok := cfg.Provider(string(kind))
		if !ok || strings.TrimSpace(pc.APIKey) == "" {
			continue
		}

		factory, ok := r.factories[kind]
		if !ok || factory == nil {
			return nil, &ConfigError{Provider: kind, Err: errors.New("client library not available")}
		}
		provider, err := factory(optionsFromConfig(pc, cfg))
		if err != nil {
			return nil, &ConfigError{Provider: kind, Err: err}
		}
		return provider, nil
	}
	return nil, ErrNoCredential
}

// NewProvider resolves the provider for cfg using the SDK-backed factories.
func NewProvider(cfg *config.Config) (Provider, error) {
	return NewResolver(nil).Resolve(cfg)
}

func optionsFromConfig(pc config.ProviderConfig, cfg *config.Config) ProviderOptions {
	return ProviderOptions{
		APIKey:      strings.TrimSpace(pc.APIKey),
		Model:       pc.Model,
		MaxTokens:   pc.MaxTokens,
		Temperature: pc.Temperature,
		BaseURL:     pc.BaseURL,
		Timeout:     cfg.RequestTimeout,
	}
}
