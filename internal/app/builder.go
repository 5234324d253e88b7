package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"storyweaver/internal/imagegen"
	"storyweaver/internal/llm"
	"storyweaver/internal/llm/gemini"
	"storyweaver/internal/llm/groq"
	"storyweaver/internal/visuals"
	"storyweaver/pkg/config"
	"storyweaver/pkg/prompts"
)

func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	var genaiClient *genai.Client
	if cfg.GeminiAPIKey != "" {
		genaiClient, err = gemini.NewGenAI(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
	}

	textClient, err := buildTextClient(cfg, genaiClient)
	if err != nil {
		return nil, err
	}

	describer := visuals.NewDescriber(textClient, p, visuals.Config{
		Timeout:     cfg.Timeouts.Visual,
		Concurrency: cfg.Concurrency,
	})

	var imageModel imagegen.ImageModel
	if genaiClient != nil {
		imageModel = genaiClient.Models
	}
	chain, err := BuildImageChain(cfg, imageModel)
	if err != nil {
		return nil, err
	}

	return NewService(ServiceOptions{
		Config:    cfg,
		LLM:       textClient,
		Describer: describer,
		Images:    chain,
		Prompts:   p,
	}), nil
}

// BuildImageService builds a service that can only acquire images. It needs no text provider key.
func BuildImageService(ctx context.Context, cfg *config.Config) (*Service, error) {
	var imageModel imagegen.ImageModel
	if cfg.GeminiAPIKey != "" {
		genaiClient, err := gemini.NewGenAI(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		imageModel = genaiClient.Models
	}

	chain, err := BuildImageChain(cfg, imageModel)
	if err != nil {
		return nil, err
	}
	return NewService(ServiceOptions{Config: cfg, Images: chain}), nil
}

func buildTextClient(cfg *config.Config, genaiClient *genai.Client) (llm.Client, error) {
	switch cfg.Text.Provider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("text provider %q requires GROQ_API_KEY", cfg.Text.Provider)
		}
		slog.Debug("Using Groq for text", "model", cfg.Text.GroqModel)
		return groq.NewClient(cfg.GroqAPIKey, cfg.Text.GroqModel)
	case config.ProviderGemini:
		if genaiClient == nil {
			return nil, fmt.Errorf("text provider %q requires GEMINI_API_KEY", cfg.Text.Provider)
		}
		slog.Debug("Using Gemini for text", "model", cfg.Text.GeminiModel)
		return gemini.NewClient(genaiClient.Models, cfg.Text.GeminiModel), nil
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.Text.Provider)
	}
}

// BuildImageChain assembles the ordered providers: Imagen when a model is
// available, the configured URL generators, then the placeholder.
func BuildImageChain(cfg *config.Config, imageModel imagegen.ImageModel) (*imagegen.Chain, error) {
	var providers []imagegen.Provider

	if imageModel != nil && !cfg.Images.DisableImagen {
		var limiter *rate.Limiter
		if cfg.Images.RateInterval > 0 {
			limiter = rate.NewLimiter(rate.Every(cfg.Images.RateInterval), max(cfg.Images.RateBurst, 1))
		}
		providers = append(providers, imagegen.NewImagen(imageModel, imagegen.ImagenConfig{
			Model:   cfg.Images.ImagenModel,
			Timeout: cfg.Timeouts.Image,
			Limiter: limiter,
		}))
	} else {
		slog.Info("Imagen disabled, using URL image providers only")
	}

	opts := imagegen.URLOptions{
		Width:  cfg.Images.Width,
		Height: cfg.Images.Height,
		Prober: imagegen.NewProber(&http.Client{}, cfg.Timeouts.Probe),
	}

	for _, fb := range cfg.Images.Fallbacks {
		provider, err := imagegen.NewURLProvider(fb.Name, fb.URL, opts)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	placeholder, err := imagegen.NewPlaceholder(cfg.Images.Placeholder, opts)
	if err != nil {
		return nil, err
	}
	providers = append(providers, placeholder)

	return imagegen.NewChain(cfg.Images.CacheTTL, providers...), nil
}
