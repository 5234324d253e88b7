package story

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSettingsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "allEmpty",
			in:   Settings{},
			want: Settings{Genre: DefaultGenre, Tone: DefaultTone, Audience: DefaultAudience},
		},
		{
			name: "partial",
			in:   Settings{Genre: "Mystery", Tone: "  "},
			want: Settings{Genre: "Mystery", Tone: DefaultTone, Audience: DefaultAudience},
		},
		{
			name: "full",
			in:   Settings{Genre: "Mystery", Tone: "Melancholic", Audience: "Adult"},
			want: Settings{Genre: "Mystery", Tone: "Melancholic", Audience: "Adult"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.WithDefaults(); got != tt.want {
				t.Errorf("WithDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid", req: Request{Idea: "A dragon learns to knit", Settings: &Settings{}}},
		{name: "blankIdea", req: Request{Idea: "   ", Settings: &Settings{}}, wantErr: true},
		{name: "missingSettings", req: Request{Idea: "A dragon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Validate() = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestUpstreamTextWrapsCause(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := UpstreamText(cause)

	if !errors.Is(err, ErrUpstreamText) {
		t.Error("expected ErrUpstreamText")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
}

func TestSceneWireFormat(t *testing.T) {
	scene := NewScene(3, "  The storm broke.  ", "A ship in a storm").
		WithImage(ImageResult{URL: "https://img.example/3.png", Provider: "Pollinations", IsFallback: true})

	data, err := json.Marshal(scene)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	got := string(data)
	for _, want := range []string{
		`"id":"3"`,
		`"title":"Scene 3"`,
		`"text":"The storm broke."`,
		`"imagePrompt":"A ship in a storm"`,
		`"imageUrl":"https://img.example/3.png"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Marshal() = %s, missing %s", got, want)
		}
	}
	if strings.Contains(got, "service") {
		t.Errorf("Marshal() = %s, image metadata should not be embedded in scenes", got)
	}
}
