package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider grades submissions through the Google Gemini API. The
// configured apiKey is the fallback when a request carries no credential.
type GeminiProvider struct {
	modelName string
	apiKey    string
}

func NewGeminiProvider(modelName, apiKey string) *GeminiProvider {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiProvider{modelName: modelName, apiKey: apiKey}
}

func (p *GeminiProvider) Supports(name string) bool {
	return strings.EqualFold(name, "gemini")
}

func (p *GeminiProvider) Send(ctx context.Context, prompt string, apiKey string) (string, error) {
	key := resolveKey(apiKey, p.apiKey)
	if key == "" {
		return "", fmt.Errorf("gemini API key is not set")
	}

	// The key can differ per request, so the client is created per call.
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}

	return sb.String(), nil
}
