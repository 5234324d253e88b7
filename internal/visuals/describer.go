// Package visuals turns scene text into prompts for image generators.
package visuals

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"storyweaver/internal/llm"
	"storyweaver/pkg/prompts"
)

const defaultConcurrency = 5

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Context is the story-level information shared by every scene.
type Context struct {
	Idea  string
	Genre string
	Tone  string
}

type SceneInput struct {
	Ordinal int
	Text    string
	Story   Context
}

type Config struct {
	Timeout     time.Duration
	Concurrency int
}

type Describer struct {
	llm     llm.Client
	prompts *prompts.Prompts
	cfg     Config
}

func NewDescriber(client llm.Client, p *prompts.Prompts, cfg Config) *Describer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Describer{
		llm:     client,
		prompts: p,
		cfg:     cfg,
	}
}

// Describe returns a visual description for the scene. It never fails:
// any model error degrades to Fallback.
func (d *Describer) Describe(ctx context.Context, in SceneInput) string {
	desc, err := d.generate(ctx, in)
	if err != nil {
		slog.Warn("Visual description failed, using fallback", "scene", in.Ordinal, "error", err)
		return Fallback(in)
	}
	return desc
}

// DescribeAll describes every scene concurrently. Results keep input order.
func (d *Describer) DescribeAll(ctx context.Context, scenes []SceneInput) []string {
	results := make([]string, len(scenes))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, scene := range scenes {
		g.Go(func() error {
			results[i] = d.Describe(ctx, scene)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Describer) generate(ctx context.Context, in SceneInput) (string, error) {
	if d.llm == nil {
		return "", llm.ErrNoResponse
	}

	prompt, err := d.prompts.RenderVisual(prompts.VisualParams{
		SceneNumber: in.Ordinal,
		SceneText:   in.Text,
		Genre:       in.Story.Genre,
		Tone:        in.Story.Tone,
		Idea:        in.Story.Idea,
	})
	if err != nil {
		return "", err
	}

	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	raw, err := d.llm.Complete(ctx, d.prompts.System.Visual, prompt)
	if err != nil {
		return "", err
	}

	desc := Clean(raw)
	if desc == "" {
		return "", llm.ErrEmptyResponse
	}

	slog.Debug("Generated visual description", "scene", in.Ordinal, "words", len(strings.Fields(desc)))
	return desc + StyleSuffix(in.Story), nil
}

// Clean collapses line breaks into single spaces and trims the result.
func Clean(raw string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(raw, " "))
}
