// Package app wires the story pipeline: text generation, scene segmentation,
// visual description and image acquisition.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storyweaver/internal/imagegen"
	"storyweaver/internal/llm"
	"storyweaver/internal/segment"
	"storyweaver/internal/story"
	"storyweaver/internal/visuals"
	"storyweaver/pkg/prompts"
)

type Pipeline struct {
	service *Service
	now     func() time.Time
}

type ImageRequest struct {
	Prompt  string `json:"imagePrompt"`
	SceneID string `json:"sceneId,omitempty"`
}

type ImageResponse struct {
	ImageURL   string `json:"imageUrl"`
	SceneID    string `json:"sceneId,omitempty"`
	Generated  bool   `json:"generated"`
	Service    string `json:"service"`
	IsFallback bool   `json:"fallback"`
	Prompt     string `json:"prompt"`
}

type generateOptions struct {
	eagerImages bool
}

type GenerateOption func(*generateOptions)

// WithEagerImages acquires an image for every scene before GenerateStory returns.
func WithEagerImages() GenerateOption {
	return func(o *generateOptions) {
		o.eagerImages = true
	}
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service, now: time.Now}
}

func (pipeline *Pipeline) GenerateStory(ctx context.Context, req story.Request, opts ...GenerateOption) (*story.Story, error) {
	var options generateOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	idea := strings.TrimSpace(req.Idea)
	settings := pipeline.resolveSettings(*req.Settings)

	slog.Info("Generating story...", "genre", settings.Genre, "tone", settings.Tone, "audience", settings.Audience)
	raw, err := pipeline.generateText(ctx, idea, settings)
	if err != nil {
		return nil, err
	}

	texts := segment.Split(raw, segment.SceneCount)
	slog.Info("Describing scenes...", "scenes", len(texts))
	descriptions := pipeline.describeScenes(ctx, idea, settings, texts)

	scenes := make([]story.Scene, len(texts))
	for i, text := range texts {
		scenes[i] = story.NewScene(i+1, text, descriptions[i])
	}

	if options.eagerImages {
		slog.Info("Acquiring images...", "scenes", len(scenes))
		pipeline.attachImages(ctx, scenes)
	}

	return &story.Story{
		ID:        uuid.NewString(),
		Idea:      idea,
		Settings:  settings,
		Scenes:    scenes,
		CreatedAt: pipeline.now().UTC(),
	}, nil
}

func (pipeline *Pipeline) AcquireImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: missing required field: imagePrompt", story.ErrInvalidInput)
	}

	result, err := pipeline.acquire(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	prompt := result.Prompt
	if prompt == "" {
		prompt = imagegen.CleanPrompt(req.Prompt)
	}

	return &ImageResponse{
		ImageURL:   result.URL,
		SceneID:    req.SceneID,
		Generated:  result.Generated,
		Service:    result.Provider,
		IsFallback: result.IsFallback,
		Prompt:     prompt,
	}, nil
}

// ProbeProviders reports the reachability of every image provider.
func (pipeline *Pipeline) ProbeProviders(ctx context.Context) []imagegen.ProviderStatus {
	return pipeline.service.Images().Probe(ctx)
}

// resolveSettings fills blank request settings from configuration, then from built-in defaults.
func (pipeline *Pipeline) resolveSettings(requested story.Settings) story.Settings {
	configured := pipeline.service.Config().Story
	return story.Settings{
		Genre:    firstNonBlank(requested.Genre, configured.Genre),
		Tone:     firstNonBlank(requested.Tone, configured.Tone),
		Audience: firstNonBlank(requested.Audience, configured.Audience),
	}.WithDefaults()
}

func (pipeline *Pipeline) generateText(ctx context.Context, idea string, settings story.Settings) (string, error) {
	p := pipeline.service.Prompts()
	prompt, err := p.RenderStory(prompts.StoryParams{
		Idea:     idea,
		Genre:    settings.Genre,
		Tone:     settings.Tone,
		Audience: settings.Audience,
	})
	if err != nil {
		return "", fmt.Errorf("render story prompt: %w", err)
	}

	if timeout := pipeline.service.Config().Timeouts.Text; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := pipeline.service.LLM().Complete(ctx, p.System.Story, prompt)
	if err != nil {
		return "", story.UpstreamText(err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", story.UpstreamText(llm.ErrEmptyResponse)
	}

	slog.Debug("Generated story text", "chars", len(raw), "duration", time.Since(start).Round(time.Millisecond))
	return raw, nil
}

func (pipeline *Pipeline) describeScenes(ctx context.Context, idea string, settings story.Settings, texts []string) []string {
	storyContext := visuals.Context{Idea: idea, Genre: settings.Genre, Tone: settings.Tone}
	inputs := make([]visuals.SceneInput, len(texts))
	for i, text := range texts {
		inputs[i] = visuals.SceneInput{Ordinal: i + 1, Text: text, Story: storyContext}
	}
	return pipeline.service.Describer().DescribeAll(ctx, inputs)
}

func (pipeline *Pipeline) attachImages(ctx context.Context, scenes []story.Scene) {
	var g errgroup.Group
	g.SetLimit(pipeline.concurrency())
	for i := range scenes {
		g.Go(func() error {
			result, err := pipeline.acquire(ctx, scenes[i].ImagePrompt)
			if err != nil {
				slog.Warn("Scene image unavailable", "scene", scenes[i].ID, "error", err)
				return nil
			}
			scenes[i] = scenes[i].WithImage(result)
			return nil
		})
	}
	_ = g.Wait()
}

// acquire runs the image chain. Each provider applies its own timeout.
func (pipeline *Pipeline) acquire(ctx context.Context, prompt string) (story.ImageResult, error) {
	return pipeline.service.Images().Acquire(ctx, prompt)
}

func (pipeline *Pipeline) concurrency() int {
	if n := pipeline.service.Config().Concurrency; n > 0 {
		return n
	}
	return segment.SceneCount
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
