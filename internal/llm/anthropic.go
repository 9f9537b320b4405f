package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel       = "claude-3-haiku-20240307"
	defaultAnthropicMaxTokens   = 500
	defaultAnthropicTemperature = 0.7
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewAnthropicProvider(opts ProviderOptions) *AnthropicProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	client := anthropic.NewClient(reqOpts...)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultAnthropicTemperature
	}
	return &AnthropicProvider{
		client:      &client,
		model:       chooseModel(opts.Model, defaultAnthropicModel),
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (p *AnthropicProvider) Name() string {
	return fmt.Sprintf("Anthropic (%s)", p.model)
}

func (p *AnthropicProvider) Kind() ProviderKind {
	return ProviderAnthropic
}

func (p *AnthropicProvider) Model() string {
	return p.model
}

func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(messages))
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("anthropic API error: response has no content")
	}
	return anthropicReplyText(message), nil
}

func (p *AnthropicProvider) buildParams(messages []Message) anthropic.MessageNewParams {
	system, rest := splitAnthropicSystem(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(p.temperature),
		Messages:    buildAnthropicMessages(rest),
	}
	// The API rejects empty text blocks, so an absent system message is
	// simply omitted.
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// splitAnthropicSystem separates the system content, which Anthropic takes
// as a dedicated parameter, from the ordered user/assistant turns.
func splitAnthropicSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func buildAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}

// anthropicReplyText returns the first content block's text. When that block
// carries no text the raw response is returned instead; it is a diagnostic,
// not meant for display. message must have at least one content block.
func anthropicReplyText(message *anthropic.Message) string {
	if message.Content[0].Type == "text" {
		return message.Content[0].Text
	}
	if raw := message.RawJSON(); raw != "" {
		return raw
	}
	return fmt.Sprintf("%+v", *message)
}
