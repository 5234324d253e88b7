package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"storyweaver/internal/story"
)

const (
	ImagenName    = "Imagen-4"
	qualitySuffix = ". Digital art, high quality, detailed illustration, professional artwork, vibrant colors, cinematic lighting"
	aspectRatio   = "16:9"
)

var errNoImages = errors.New("no images generated")

// ImageModel is satisfied by (*genai.Client).Models.
type ImageModel interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type ImagenConfig struct {
	Model   string
	Timeout time.Duration
	Limiter *rate.Limiter
}

// Imagen is the primary provider. Its images are returned inline as data URIs.
type Imagen struct {
	models ImageModel
	cfg    ImagenConfig
}

func NewImagen(models ImageModel, cfg ImagenConfig) *Imagen {
	return &Imagen{models: models, cfg: cfg}
}

func (p *Imagen) Name() string {
	return ImagenName
}

// EnhancePrompt appends the fixed quality suffix sent to the primary provider.
func EnhancePrompt(prompt string) string {
	return prompt + qualitySuffix
}

func (p *Imagen) TryProvide(ctx context.Context, prompt string) Attempt {
	if p.cfg.Limiter != nil {
		if err := p.cfg.Limiter.Wait(ctx); err != nil {
			return failure(fmt.Errorf("wait for rate limiter: %w", err))
		}
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	enhanced := EnhancePrompt(prompt)
	start := time.Now()
	resp, err := p.models.GenerateImages(ctx, p.cfg.Model, enhanced, &genai.GenerateImagesConfig{
		NumberOfImages:    1,
		AspectRatio:       aspectRatio,
		SafetyFilterLevel: genai.SafetyFilterLevelBlockLowAndAbove,
		PersonGeneration:  genai.PersonGenerationAllowAdult,
	})
	if err != nil {
		if strings.Contains(err.Error(), "billed users") {
			slog.Info("Imagen requires billing to be enabled on the Google Cloud account, falling back")
		}
		return failure(fmt.Errorf("generate images: %w", err))
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		return failure(errNoImages)
	}
	img := resp.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return failure(errNoImages)
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	slog.Debug("Imagen generated image", "bytes", len(img.ImageBytes), "duration", time.Since(start).Round(time.Millisecond))
	return success(story.ImageResult{
		URL:       "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.ImageBytes),
		Provider:  ImagenName,
		Generated: true,
		Prompt:    enhanced,
	})
}
