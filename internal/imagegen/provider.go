// Package imagegen acquires an image for a visual prompt by walking an
// ordered chain of providers until one succeeds.
package imagegen

import (
	"context"
	"regexp"
	"strings"

	"storyweaver/internal/story"
)

var illustrationPrefix = regexp.MustCompile(`^Illustration for .* story: `)

// Attempt is the outcome of a single provider. Exactly one of Result or Err is meaningful.
type Attempt struct {
	Result story.ImageResult
	Err    error
}

func (a Attempt) OK() bool {
	return a.Err == nil
}

func success(result story.ImageResult) Attempt {
	return Attempt{Result: result}
}

func failure(err error) Attempt {
	return Attempt{Err: err}
}

// Provider is one link of the chain. TryProvide must not panic; every
// failure is reported through the returned Attempt.
type Provider interface {
	Name() string
	TryProvide(ctx context.Context, prompt string) Attempt
}

// HealthChecker is implemented by providers that can be probed without a real prompt.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CleanPrompt strips the legacy "Illustration for ... story: " prefix and trims.
func CleanPrompt(prompt string) string {
	return strings.TrimSpace(illustrationPrefix.ReplaceAllString(strings.TrimSpace(prompt), ""))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
