package story

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGenre    = "General Fiction"
	DefaultTone     = "Balanced"
	DefaultAudience = "General"
)

type Settings struct {
	Genre    string `json:"genre,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Audience string `json:"audience,omitempty"`
}

// WithDefaults returns a copy with every blank field replaced by its default.
func (s Settings) WithDefaults() Settings {
	return Settings{
		Genre:    orDefault(s.Genre, DefaultGenre),
		Tone:     orDefault(s.Tone, DefaultTone),
		Audience: orDefault(s.Audience, DefaultAudience),
	}
}

type Request struct {
	Idea     string    `json:"idea"`
	Settings *Settings `json:"settings"`
}

// Validate reports ErrInvalidInput when the idea is blank or settings are absent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Idea) == "" {
		return invalidf("missing required field: idea")
	}
	if r.Settings == nil {
		return invalidf("missing required field: settings")
	}
	return nil
}

type ImageResult struct {
	URL        string `json:"imageUrl"`
	Provider   string `json:"service"`
	IsFallback bool   `json:"fallback"`
	Generated  bool   `json:"generated"`
	Prompt     string `json:"prompt,omitempty"`
}

type Scene struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Text        string       `json:"text"`
	ImagePrompt string       `json:"imagePrompt"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Image       *ImageResult `json:"-"`
}

func NewScene(ordinal int, text, imagePrompt string) Scene {
	return Scene{
		ID:          strconv.Itoa(ordinal),
		Title:       "Scene " + strconv.Itoa(ordinal),
		Text:        strings.TrimSpace(text),
		ImagePrompt: imagePrompt,
	}
}

// WithImage returns a copy of the scene carrying img.
func (s Scene) WithImage(img ImageResult) Scene {
	s.Image = &img
	s.ImageURL = img.URL
	return s
}

type Story struct {
	ID        string    `json:"id"`
	Idea      string    `json:"idea"`
	Settings  Settings  `json:"settings"`
	Scenes    []Scene   `json:"scenes"`
	CreatedAt time.Time `json:"createdAt"`
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
