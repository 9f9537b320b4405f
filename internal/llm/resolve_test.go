package llm

import (
	"errors"
	"testing"

	"github.com/samsaffron/course-llm/internal/config"
)

func countingFactories(calls map[ProviderKind]int) map[ProviderKind]Factory {
	factories := make(map[ProviderKind]Factory)
	for _, kind := range Precedence {
		kind := kind
		factories[kind] = func(opts ProviderOptions) (Provider, error) {
			calls[kind]++
			return NewMockProvider(kind), nil
		}
	}
	return factories
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		openai    string
		anthropic string
		want      ProviderKind
		wantErr   error
	}{
		{name: "both present", openai: "sk-openai", anthropic: "sk-ant", want: ProviderOpenAI},
		{name: "primary only", openai: "sk-openai", want: ProviderOpenAI},
		{name: "secondary only", anthropic: "sk-ant", want: ProviderAnthropic},
		{name: "none", wantErr: ErrNoCredential},
		{name: "whitespace is absent", openai: "  ", anthropic: "sk-ant", want: ProviderAnthropic},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.OpenAI.APIKey = tc.openai
			cfg.Anthropic.APIKey = tc.anthropic

			calls := make(map[ProviderKind]int)
			provider, err := NewResolver(countingFactories(calls)).Resolve(cfg)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				if len(calls) != 0 {
					t.Fatalf("no factory should run, got %v", calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider.Kind() != tc.want {
				t.Fatalf("kind=%q, want %q", provider.Kind(), tc.want)
			}
			if calls[tc.want] != 1 {
				t.Fatalf("factory for %q called %d times, want 1", tc.want, calls[tc.want])
			}
			if len(calls) != 1 {
				t.Fatalf("unused provider was probed: %v", calls)
			}
		})
	}
}

func TestResolvePrimaryFailureDoesNotFallThrough(t *testing.T) {
	cfg := config.Defaults()
	cfg.OpenAI.APIKey = "sk-openai"
	cfg.Anthropic.APIKey = "sk-ant"

	secondaryCalled := false
	factories := map[ProviderKind]Factory{
		ProviderOpenAI: func(opts ProviderOptions) (Provider, error) {
			return nil, errors.New("library missing")
		},
		ProviderAnthropic: func(opts ProviderOptions) (Provider, error) {
			secondaryCalled = true
			return NewMockProvider(ProviderAnthropic), nil
		},
	}

	_, err := NewResolver(factories).Resolve(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Provider != ProviderOpenAI {
		t.Fatalf("provider=%q, want openai", cfgErr.Provider)
	}
	if secondaryCalled {
		t.Fatal("secondary provider must not be tried after primary failure")
	}
}

func TestResolveMissingFactory(t *testing.T) {
	cfg := config.Defaults()
	cfg.Anthropic.APIKey = "sk-ant"

	_, err := NewResolver(map[ProviderKind]Factory{}).Resolve(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Provider != ProviderAnthropic {
		t.Fatalf("expected anthropic ConfigError, got %v", err)
	}
}

func TestResolvePassesOptions(t *testing.T) {
	cfg := config.Defaults()
	cfg.Anthropic.APIKey = " sk-ant "
	cfg.Anthropic.Model = "claude-test"
	cfg.Anthropic.BaseURL = "http://localhost:1234"

	var got ProviderOptions
	factories := map[ProviderKind]Factory{
		ProviderAnthropic: func(opts ProviderOptions) (Provider, error) {
			got = opts
			return NewMockProvider(ProviderAnthropic), nil
		},
	}
	if _, err := NewResolver(factories).Resolve(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.APIKey != "sk-ant" {
		t.Fatalf("APIKey=%q, want trimmed key", got.APIKey)
	}
	if got.Model != "claude-test" || got.BaseURL != "http://localhost:1234" {
		t.Fatalf("unexpected options: %+v", got)
	}
	if got.MaxTokens != 500 || got.Temperature != 0.7 {
		t.Fatalf("default generation params not passed: %+v", got)
	}
}

func TestNewProviderBuildsSDKClient(t *testing.T) {
	cfg := config.Defaults()
	cfg.OpenAI.APIKey = "sk-openai"

	provider, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*OpenAIProvider); !ok {
		t.Fatalf("expected *OpenAIProvider, got %T", provider)
	}
	if provider.Model() != "gpt-3.5-turbo" {
		t.Fatalf("model=%q", provider.Model())
	}
}
