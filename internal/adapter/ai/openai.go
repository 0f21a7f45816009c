package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompatProvider wraps any OpenAI-compatible chat completion API
// (x.ai Grok, NVIDIA-hosted Kimi, etc). It implements port.GenerationProvider.
type OpenAICompatProvider struct {
	client openai.Client
	model  string
}

// NewOpenAICompatProvider creates a provider against an OpenAI-compatible API.
func NewOpenAICompatProvider(apiKey, baseURL, model string) *OpenAICompatProvider {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &OpenAICompatProvider{client: client, model: model}
}

// ModelName returns the configured model identifier.
func (p *OpenAICompatProvider) ModelName() string {
	return p.model
}

// Generate sends a single-turn prompt and returns the complete response.
func (p *OpenAICompatProvider) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return completion.Choices[0].Message.Content, nil
}
