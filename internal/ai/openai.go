package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider grades submissions through an OpenAI-compatible chat API.
// The configured apiKey is the fallback when a request carries no credential.
type OpenAIProvider struct {
	modelName string
	baseURL   string
	apiKey    string
}

func NewOpenAIProvider(modelName, baseURL, apiKey string) *OpenAIProvider {
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAIProvider{modelName: modelName, baseURL: baseURL, apiKey: apiKey}
}

func (p *OpenAIProvider) Supports(name string) bool {
	return strings.EqualFold(name, "openai") || strings.EqualFold(name, "chatgpt")
}

func (p *OpenAIProvider) Send(ctx context.Context, prompt string, apiKey string) (string, error) {
	key := resolveKey(apiKey, p.apiKey)
	if key == "" {
		return "", fmt.Errorf("openai API key is not set")
	}

	config := openai.DefaultConfig(key)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("openai API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
