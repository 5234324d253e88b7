package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"storyweaver/internal/story"
)

const cacheCleanupInterval = time.Hour

// ProviderStatus reports the reachability of a single provider.
type ProviderStatus struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	Checked   bool   `json:"checked"`
	Error     string `json:"error,omitempty"`
}

// Chain tries its providers in order and returns the first success.
type Chain struct {
	providers []Provider
	cache     *cache.Cache
}

// NewChain builds a chain over providers. A non-positive ttl disables caching.
// Only primary results are cached so a later request can retry the primary
// after a fallback served the prompt.
func NewChain(ttl time.Duration, providers ...Provider) *Chain {
	c := &Chain{providers: providers}
	if ttl > 0 {
		c.cache = cache.New(ttl, cacheCleanupInterval)
	}
	return c
}

func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

func (c *Chain) Acquire(ctx context.Context, prompt string) (story.ImageResult, error) {
	cleaned := CleanPrompt(prompt)
	if cleaned == "" {
		return story.ImageResult{}, fmt.Errorf("%w: image prompt is required", story.ErrInvalidInput)
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(cleaned); ok {
			slog.Debug("Image cache hit", "provider", cached.(story.ImageResult).Provider)
			return cached.(story.ImageResult), nil
		}
	}

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return story.ImageResult{}, fmt.Errorf("acquire image: %w", err)
		}

		attempt := c.try(ctx, p, cleaned)
		if !attempt.OK() {
			slog.Warn("Image provider failed", "provider", p.Name(), "error", attempt.Err)
			continue
		}

		slog.Info("Image acquired", "provider", p.Name(), "fallback", attempt.Result.IsFallback)
		if c.cache != nil && !attempt.Result.IsFallback {
			c.cache.SetDefault(cleaned, attempt.Result)
		}
		return attempt.Result, nil
	}

	return story.ImageResult{}, story.ErrImageUnavailable
}

func (c *Chain) try(ctx context.Context, p Provider, prompt string) (attempt Attempt) {
	defer func() {
		if r := recover(); r != nil {
			attempt = failure(fmt.Errorf("provider %s panicked: %v", p.Name(), r))
		}
	}()
	return p.TryProvide(ctx, prompt)
}

// Probe checks every provider that supports a liveness check. Providers
// without one are reported as unchecked.
func (c *Chain) Probe(ctx context.Context) []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(c.providers))
	for _, p := range c.providers {
		status := ProviderStatus{Name: p.Name()}
		if hc, ok := p.(HealthChecker); ok {
			status.Checked = true
			if err := hc.Check(ctx); err != nil {
				status.Error = err.Error()
			} else {
				status.Reachable = true
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
