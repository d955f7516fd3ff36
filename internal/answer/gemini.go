package answer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultCompletionModel is the Gemini model answers are generated with.
const DefaultCompletionModel = "gemini-2.5-flash"

// contentGenerator is the slice of the genai Models API the completer
// needs. Tests substitute a fake.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCompleter generates answers through the Gemini API.
type GeminiCompleter struct {
	client contentGenerator
	model  string
}

// NewGeminiCompleter creates a completer from an API key.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if model == "" {
		model = DefaultCompletionModel
	}
	return &GeminiCompleter{client: client.Models, model: model}, nil
}

// Complete sends the prompt and returns the generated text.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}
