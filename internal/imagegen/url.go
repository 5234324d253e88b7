package imagegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"text/template"
	"time"

	"storyweaver/internal/story"
)

const (
	PlaceholderName  = "Placeholder"
	placeholderLabel = "Story Image: "
	placeholderRunes = 30
	healthPrompt     = "connectivity test"
)

// Prober performs the lightweight existence check that precedes committing to a URL.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

func NewProber(client *http.Client, timeout time.Duration) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prober{client: client, timeout: timeout}
}

// Probe issues a HEAD request and fails on transport errors or non-2xx responses.
func (p *Prober) Probe(ctx context.Context, target string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe: unexpected status %s", resp.Status)
	}
	return nil
}

type URLOptions struct {
	Width  int
	Height int
	Prober *Prober
}

// URLProvider serves an externally hosted image whose URL is rendered from a template.
// Templates see .Prompt (path-escaped), .Text (query-escaped label), .Width and .Height.
type URLProvider struct {
	name      string
	tmpl      *template.Template
	opts      URLOptions
	generated bool
	label     func(prompt string) string
}

type urlData struct {
	Prompt string
	Text   string
	Width  int
	Height int
}

func NewURLProvider(name, rawURL string, opts URLOptions) (*URLProvider, error) {
	return newURLProvider(name, rawURL, opts, true, func(prompt string) string { return prompt })
}

// NewPlaceholder builds the terminal provider; its label is a truncated prompt.
func NewPlaceholder(rawURL string, opts URLOptions) (*URLProvider, error) {
	return newURLProvider(PlaceholderName, rawURL, opts, false, func(prompt string) string {
		return placeholderLabel + truncate(prompt, placeholderRunes)
	})
}

func newURLProvider(name, rawURL string, opts URLOptions, generated bool, label func(string) string) (*URLProvider, error) {
	if opts.Prober == nil {
		return nil, errors.New("url provider requires a prober")
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url template for %s: %w", name, err)
	}
	return &URLProvider{
		name:      name,
		tmpl:      tmpl,
		opts:      opts,
		generated: generated,
		label:     label,
	}, nil
}

func (p *URLProvider) Name() string {
	return p.name
}

// URL renders the provider's URL for prompt.
func (p *URLProvider) URL(prompt string) (string, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, urlData{
		Prompt: url.PathEscape(prompt),
		Text:   url.QueryEscape(p.label(prompt)),
		Width:  p.opts.Width,
		Height: p.opts.Height,
	})
	if err != nil {
		return "", fmt.Errorf("render url: %w", err)
	}
	return buf.String(), nil
}

func (p *URLProvider) TryProvide(ctx context.Context, prompt string) Attempt {
	target, err := p.URL(prompt)
	if err != nil {
		return failure(err)
	}

	if err := p.opts.Prober.Probe(ctx, target); err != nil {
		return failure(err)
	}

	return success(story.ImageResult{
		URL:        target,
		Provider:   p.name,
		IsFallback: true,
		Generated:  p.generated,
	})
}

func (p *URLProvider) Check(ctx context.Context) error {
	target, err := p.URL(healthPrompt)
	if err != nil {
		return err
	}
	return p.opts.Prober.Probe(ctx, target)
}
