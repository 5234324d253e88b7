package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)

	for _, key := range []string{"GEMINI_API_KEY", "GROQ_API_KEY", "GOOGLE_CLOUD_PROJECT", "TEXT_PROVIDER", "PORT", "APP_ENV"} {
		t.Setenv(key, "")
	}
	return tmp
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)

	yaml := `
text:
  provider: groq
  groq_model: test-model
images:
  width: 800
  cache_ttl: 10m
  fallbacks:
    - name: Custom
      url: "https://img.example/{{.Prompt}}"
story:
  genre: Fantasy
timeouts:
  probe: 2s
concurrency: 3
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Text.Provider != ProviderGroq {
		t.Errorf("Text.Provider = %q, want groq", cfg.Text.Provider)
	}
	if cfg.Text.GroqModel != "test-model" {
		t.Errorf("Text.GroqModel = %q, want test-model", cfg.Text.GroqModel)
	}
	if cfg.Images.Width != 800 {
		t.Errorf("Images.Width = %d, want 800", cfg.Images.Width)
	}
	if cfg.Images.Height != defaultImageHeight {
		t.Errorf("Images.Height = %d, want %d", cfg.Images.Height, defaultImageHeight)
	}
	if cfg.Images.CacheTTL != 10*time.Minute {
		t.Errorf("Images.CacheTTL = %v, want 10m", cfg.Images.CacheTTL)
	}
	if len(cfg.Images.Fallbacks) != 1 || cfg.Images.Fallbacks[0].Name != "Custom" {
		t.Errorf("Images.Fallbacks = %+v, want single Custom entry", cfg.Images.Fallbacks)
	}
	if cfg.Story.Genre != "Fantasy" {
		t.Errorf("Story.Genre = %q, want Fantasy", cfg.Story.Genre)
	}
	if cfg.Timeouts.Probe != 2*time.Second {
		t.Errorf("Timeouts.Probe = %v, want 2s", cfg.Timeouts.Probe)
	}
	if cfg.Timeouts.Text != defaultTextTimeout {
		t.Errorf("Timeouts.Text = %v, want %v", cfg.Timeouts.Text, defaultTextTimeout)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Concurrency)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GEMINI_API_KEY", "test-gemini")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GeminiAPIKey != "test-gemini" {
		t.Errorf("GeminiAPIKey = %q, want test-gemini", cfg.GeminiAPIKey)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
}

func TestTextProviderFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TEXT_PROVIDER", "groq")
	t.Setenv("GEMINI_API_KEY", "g")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Text.Provider != ProviderGroq {
		t.Errorf("Text.Provider = %q, want groq", cfg.Text.Provider)
	}
}

func TestLoadMissingConfigFileUsesDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Text.Provider != ProviderGemini {
		t.Errorf("Text.Provider = %q, want gemini", cfg.Text.Provider)
	}
	if cfg.Images.ImagenModel != defaultImagenModel {
		t.Errorf("Images.ImagenModel = %q, want %q", cfg.Images.ImagenModel, defaultImagenModel)
	}
	if len(cfg.Images.Fallbacks) < 2 {
		t.Errorf("Images.Fallbacks has %d entries, want at least 2", len(cfg.Images.Fallbacks))
	}
	if cfg.Server.Addr != defaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, defaultServerAddr)
	}
	if cfg.Concurrency != defaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, defaultConcurrency)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmp := chdirTemp(t)
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("text: [unclosed"), 0644)

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() should fail on malformed config.yaml")
	}
}

func TestProviderInferredFromKeys(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GROQ_API_KEY", "test-groq")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Text.Provider != ProviderGroq {
		t.Errorf("Text.Provider = %q, want groq", cfg.Text.Provider)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "geminiWithKey", cfg: Config{GeminiAPIKey: "k", Text: TextConfig{Provider: ProviderGemini}}},
		{name: "geminiMissingKey", cfg: Config{Text: TextConfig{Provider: ProviderGemini}}, wantErr: true},
		{name: "groqWithKey", cfg: Config{GroqAPIKey: "k", Text: TextConfig{Provider: ProviderGroq}}},
		{name: "groqMissingKey", cfg: Config{GeminiAPIKey: "k", Text: TextConfig{Provider: ProviderGroq}}, wantErr: true},
		{name: "unknownProvider", cfg: Config{Text: TextConfig{Provider: "openai"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	value, ok := f[req.GetName()]
	if !ok {
		return nil, errors.New("not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func TestResolveSecrets(t *testing.T) {
	secrets := fakeSecrets{
		"projects/demo/secrets/GEMINI_API_KEY/versions/latest": "from-secret-manager",
		"projects/demo/secrets/GROQ_API_KEY/versions/latest":   "should-not-override",
	}
	cfg := &Config{GCPProject: "demo", GroqAPIKey: "from-env"}

	resolveSecrets(context.Background(), secrets, cfg)

	if cfg.GeminiAPIKey != "from-secret-manager" {
		t.Errorf("GeminiAPIKey = %q, want from-secret-manager", cfg.GeminiAPIKey)
	}
	if cfg.GroqAPIKey != "from-env" {
		t.Errorf("GroqAPIKey = %q, want from-env", cfg.GroqAPIKey)
	}
}

func TestResolveSecretsMissing(t *testing.T) {
	cfg := &Config{GCPProject: "demo"}

	resolveSecrets(context.Background(), fakeSecrets{}, cfg)

	if cfg.GeminiAPIKey != "" || cfg.GroqAPIKey != "" {
		t.Errorf("expected keys to stay empty, got %+v", cfg)
	}
}

func TestSaveOmitsSecrets(t *testing.T) {
	tmp := chdirTemp(t)
	path := filepath.Join(tmp, "config.yaml")

	cfg := Default()
	cfg.GeminiAPIKey = "must-not-leak"
	cfg.Images.CacheTTL = 5 * time.Minute
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "must-not-leak") {
		t.Error("saved config contains an API key")
	}

	loaded, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Images.CacheTTL != 5*time.Minute {
		t.Errorf("Images.CacheTTL = %v, want 5m", loaded.Images.CacheTTL)
	}
	if loaded.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty", loaded.GeminiAPIKey)
	}
}
