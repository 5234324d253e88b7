// Package llm defines the text completion gateway used by the story pipeline.
package llm

import (
	"context"
	"errors"
)

var (
	ErrNoResponse    = errors.New("no response")
	ErrEmptyResponse = errors.New("empty response")
)

// Client completes a single prompt. Implementations return ErrEmptyResponse
// rather than an empty string.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
