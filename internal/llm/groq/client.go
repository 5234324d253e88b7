package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"storyweaver/internal/llm"
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewClient(apiKey, model string, opts ...groq.Opts) (*Client, error) {
	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]groq.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, groq.ChatCompletionMessage{Role: groq.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, groq.ChatCompletionMessage{Role: groq.RoleUser, Content: userPrompt})

	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrNoResponse
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.ErrEmptyResponse
	}

	return content, nil
}
