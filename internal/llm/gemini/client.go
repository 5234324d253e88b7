package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"storyweaver/internal/llm"
)

var _ llm.Client = (*Client)(nil)

// ContentGenerator is satisfied by (*genai.Client).Models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models ContentGenerator
	model  string
}

// NewGenAI creates the shared Gemini API client used for text and image generation.
func NewGenAI(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func NewClient(models ContentGenerator, model string) *Client {
	return &Client{
		models: models,
		model:  model,
	}
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemPrompt}},
			},
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", llm.ErrNoResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
