package imagegen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type fakeImageModel struct {
	resp   *genai.GenerateImagesResponse
	err    error
	prompt string
	config *genai.GenerateImagesConfig
}

func (f *fakeImageModel) GenerateImages(_ context.Context, _ string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.prompt = prompt
	f.config = config
	return f.resp, f.err
}

func imageResponse(mime string, data []byte) *genai.GenerateImagesResponse {
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{Image: &genai.Image{ImageBytes: data, MIMEType: mime}},
		},
	}
}

func TestImagenTryProvide(t *testing.T) {
	tests := []struct {
		name    string
		model   *fakeImageModel
		wantURL string
		wantErr bool
	}{
		{
			name:    "pngDataURI",
			model:   &fakeImageModel{resp: imageResponse("image/png", []byte("png"))},
			wantURL: "data:image/png;base64,cG5n",
		},
		{
			name:    "defaultMimeType",
			model:   &fakeImageModel{resp: imageResponse("", []byte("png"))},
			wantURL: "data:image/png;base64,cG5n",
		},
		{
			name:    "jpegDataURI",
			model:   &fakeImageModel{resp: imageResponse("image/jpeg", []byte("jpg"))},
			wantURL: "data:image/jpeg;base64,anBn",
		},
		{
			name:    "noImages",
			model:   &fakeImageModel{resp: &genai.GenerateImagesResponse{}},
			wantErr: true,
		},
		{
			name:    "emptyBytes",
			model:   &fakeImageModel{resp: imageResponse("image/png", nil)},
			wantErr: true,
		},
		{
			name:    "apiError",
			model:   &fakeImageModel{err: errors.New("Imagen API is only accessible to billed users")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewImagen(tt.model, ImagenConfig{Model: "imagen-4.0-generate-001"})
			got := p.TryProvide(context.Background(), "a lighthouse")

			if tt.wantErr {
				if got.OK() {
					t.Fatalf("TryProvide() succeeded with %+v, want failure", got.Result)
				}
				return
			}
			if !got.OK() {
				t.Fatalf("TryProvide() error = %v", got.Err)
			}
			if got.Result.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.Result.URL, tt.wantURL)
			}
			if got.Result.IsFallback || !got.Result.Generated || got.Result.Provider != ImagenName {
				t.Errorf("Result = %+v, want generated primary result", got.Result)
			}
		})
	}
}

func TestImagenRequest(t *testing.T) {
	model := &fakeImageModel{resp: imageResponse("image/png", []byte("x"))}
	NewImagen(model, ImagenConfig{Model: "imagen"}).TryProvide(context.Background(), "a glowing shell")

	if !strings.HasPrefix(model.prompt, "a glowing shell. Digital art, high quality") {
		t.Errorf("prompt = %q, want enhanced prompt", model.prompt)
	}
	if model.config.NumberOfImages != 1 || model.config.AspectRatio != "16:9" {
		t.Errorf("config = %+v, want one 16:9 image", model.config)
	}
	if model.config.SafetyFilterLevel != genai.SafetyFilterLevelBlockLowAndAbove {
		t.Errorf("SafetyFilterLevel = %q", model.config.SafetyFilterLevel)
	}
}

func TestImagenCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeImageModel{resp: imageResponse("image/png", []byte("x"))}
	p := NewImagen(model, ImagenConfig{Model: "imagen", Limiter: rate.NewLimiter(rate.Every(time.Minute), 1)})

	if got := p.TryProvide(ctx, "a lighthouse"); got.OK() {
		t.Error("TryProvide() succeeded with canceled context, want limiter failure")
	}
}
