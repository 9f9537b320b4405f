package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultOpenAIModel       = "gpt-3.5-turbo"
	defaultOpenAIMaxTokens   = 500
	defaultOpenAITemperature = 0.7
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewOpenAIProvider(opts ProviderOptions) *OpenAIProvider {
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
	client := openai.NewClient(reqOpts...)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultOpenAITemperature
	}
	return &OpenAIProvider{
		client:      &client,
		model:       chooseModel(opts.Model, defaultOpenAIModel),
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("OpenAI (%s)", p.model)
}

func (p *OpenAIProvider) Kind() ProviderKind {
	return ProviderOpenAI
}

func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(messages))
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai API error: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) buildParams(messages []Message) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    buildOpenAIMessages(messages),
		MaxTokens:   openai.Int(p.maxTokens),
		Temperature: openai.Float(p.temperature),
	}
}

// buildOpenAIMessages passes the conversation through verbatim: same order,
// same roles, system message included in place.
func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
