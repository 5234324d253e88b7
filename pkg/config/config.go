package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultTextProvider   = ProviderGemini
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultImagenModel    = "imagen-4.0-generate-001"
	defaultImageWidth     = 1024
	defaultImageHeight    = 576
	defaultCacheTTL       = 30 * time.Minute
	defaultRateInterval   = 2 * time.Second
	defaultRateBurst      = 2
	defaultTextTimeout    = 60 * time.Second
	defaultVisualTimeout  = 30 * time.Second
	defaultImageTimeout   = 60 * time.Second
	defaultProbeTimeout   = 5 * time.Second
	defaultProxyTimeout   = 30 * time.Second
	defaultConcurrency    = 5
	defaultServerAddr     = ":3000"
	defaultEnvironment    = "production"
	defaultPlaceholderURL = "https://via.placeholder.com/{{.Width}}x{{.Height}}/8b5cf6/ffffff?text={{.Text}}"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

type Config struct {
	GeminiAPIKey string `yaml:"-"`
	GroqAPIKey   string `yaml:"-"`
	GCPProject   string `yaml:"-"`

	Text        TextConfig     `yaml:"text"`
	Images      ImagesConfig   `yaml:"images"`
	Story       StoryConfig    `yaml:"story"`
	Timeouts    TimeoutsConfig `yaml:"timeouts"`
	Server      ServerConfig   `yaml:"server"`
	Concurrency int            `yaml:"concurrency"`
}

type TextConfig struct {
	Provider    string `yaml:"provider"` // "gemini" or "groq"
	GeminiModel string `yaml:"gemini_model"`
	GroqModel   string `yaml:"groq_model"`
}

type URLProvider struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type ImagesConfig struct {
	ImagenModel   string        `yaml:"imagen_model"`
	DisableImagen bool          `yaml:"disable_imagen"`
	Fallbacks     []URLProvider `yaml:"fallbacks"`
	Placeholder   string        `yaml:"placeholder"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	RateInterval  time.Duration `yaml:"rate_interval"`
	RateBurst     int           `yaml:"rate_burst"`
}

type StoryConfig struct {
	Genre    string `yaml:"genre"`
	Tone     string `yaml:"tone"`
	Audience string `yaml:"audience"`
}

type TimeoutsConfig struct {
	Text   time.Duration `yaml:"text"`
	Visual time.Duration `yaml:"visual"`
	Image  time.Duration `yaml:"image"`
	Probe  time.Duration `yaml:"probe"`
	Proxy  time.Duration `yaml:"proxy"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Environment string `yaml:"environment"`
}

// DefaultFallbacks are the URL-templated generators tried after the primary provider.
func DefaultFallbacks() []URLProvider {
	return []URLProvider{
		{
			Name: "Pollinations",
			URL:  "https://image.pollinations.ai/prompt/{{.Prompt}}%2C%20digital%20art%2C%20high%20quality%2C%20detailed?width={{.Width}}&height={{.Height}}&nologo=true",
		},
		{
			Name: "Pollinations Alt",
			URL:  "https://image.pollinations.ai/prompt/Professional%20illustration%3A%20{{.Prompt}}?width=800&height=450&model=flux&nologo=true",
		},
	}
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.GCPProject != "" && (cfg.GeminiAPIKey == "" || cfg.GroqAPIKey == "") {
		if err := loadSecrets(ctx, cfg); err != nil {
			slog.Warn("Failed to load secrets from Secret Manager", "project", cfg.GCPProject, "error", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the configuration used when no config.yaml exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Save writes the non-secret part of cfg as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// envOverrides holds the settings read from the environment after config.yaml.
type envOverrides struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	GCPProject   string `env:"GOOGLE_CLOUD_PROJECT"`
	TextProvider string `env:"TEXT_PROVIDER"`
	Port         string `env:"PORT"`
	Environment  string `env:"APP_ENV"`
}

func applyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	cfg.GeminiAPIKey = overrides.GeminiAPIKey
	cfg.GroqAPIKey = overrides.GroqAPIKey
	cfg.GCPProject = overrides.GCPProject
	if overrides.TextProvider != "" {
		cfg.Text.Provider = overrides.TextProvider
	}
	if overrides.Port != "" {
		cfg.Server.Addr = ":" + overrides.Port
	}
	if overrides.Environment != "" {
		cfg.Server.Environment = overrides.Environment
	}
	return nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("No config.yaml found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports configuration that would make story generation impossible.
func (c *Config) Validate() error {
	switch c.Text.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini text provider")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return errors.New("GROQ_API_KEY is required for the groq text provider")
		}
	default:
		return fmt.Errorf("unknown text provider %q", c.Text.Provider)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func applyDefaults(cfg *Config) {
	applyTextDefaults(cfg)
	applyImagesDefaults(cfg)
	applyTimeoutDefaults(cfg)
	applyServerDefaults(cfg)
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
}

func applyTextDefaults(cfg *Config) {
	if cfg.Text.Provider == "" {
		cfg.Text.Provider = defaultTextProvider
		if cfg.GeminiAPIKey == "" && cfg.GroqAPIKey != "" {
			cfg.Text.Provider = ProviderGroq
		}
	}
	if cfg.Text.GeminiModel == "" {
		cfg.Text.GeminiModel = defaultGeminiModel
	}
	if cfg.Text.GroqModel == "" {
		cfg.Text.GroqModel = defaultGroqModel
	}
}

func applyImagesDefaults(cfg *Config) {
	if cfg.Images.ImagenModel == "" {
		cfg.Images.ImagenModel = defaultImagenModel
	}
	if len(cfg.Images.Fallbacks) == 0 {
		cfg.Images.Fallbacks = DefaultFallbacks()
	}
	if cfg.Images.Placeholder == "" {
		cfg.Images.Placeholder = defaultPlaceholderURL
	}
	if cfg.Images.Width == 0 {
		cfg.Images.Width = defaultImageWidth
	}
	if cfg.Images.Height == 0 {
		cfg.Images.Height = defaultImageHeight
	}
	if cfg.Images.CacheTTL == 0 {
		cfg.Images.CacheTTL = defaultCacheTTL
	}
	if cfg.Images.RateInterval == 0 {
		cfg.Images.RateInterval = defaultRateInterval
	}
	if cfg.Images.RateBurst == 0 {
		cfg.Images.RateBurst = defaultRateBurst
	}
}

func applyTimeoutDefaults(cfg *Config) {
	if cfg.Timeouts.Text == 0 {
		cfg.Timeouts.Text = defaultTextTimeout
	}
	if cfg.Timeouts.Visual == 0 {
		cfg.Timeouts.Visual = defaultVisualTimeout
	}
	if cfg.Timeouts.Image == 0 {
		cfg.Timeouts.Image = defaultImageTimeout
	}
	if cfg.Timeouts.Probe == 0 {
		cfg.Timeouts.Probe = defaultProbeTimeout
	}
	if cfg.Timeouts.Proxy == 0 {
		cfg.Timeouts.Proxy = defaultProxyTimeout
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = defaultEnvironment
	}
}
