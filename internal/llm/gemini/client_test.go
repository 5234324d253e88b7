package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"storyweaver/internal/llm"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		want    string
		wantErr error
	}{
		{
			name: "singlePart",
			resp: textResponse("A keeper at dawn."),
			want: "A keeper at dawn.",
		},
		{
			name: "multipleParts",
			resp: textResponse("---SCENE 1---\n", "The lamp."),
			want: "---SCENE 1---\nThe lamp.",
		},
		{
			name:    "noCandidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: llm.ErrNoResponse,
		},
		{
			name:    "blankText",
			resp:    textResponse("   "),
			wantErr: llm.ErrEmptyResponse,
		},
		{
			name:    "apiError",
			err:  errors.New("billing not enabled"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{resp: tt.resp, err: tt.err}
			client := NewClient(models, "gemini-2.5-flash")

			got, err := client.Complete(context.Background(), "system", "prompt")

			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("Complete() error = %v, want wrapping %v", err, tt.err)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Complete() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompletePassesPrompts(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	client := NewClient(models, "gemini-2.5-flash")

	if _, err := client.Complete(context.Background(), "be vivid", "describe the sea"); err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}

	if models.model != "gemini-2.5-flash" {
		t.Errorf("model = %q", models.model)
	}
	if models.prompt != "describe the sea" {
		t.Errorf("prompt = %q", models.prompt)
	}
	if models.config == nil || models.config.SystemInstruction.Parts[0].Text != "be vivid" {
		t.Errorf("system instruction not set: %+v", models.config)
	}

	if _, err := client.Complete(context.Background(), "", "no system"); err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if models.config != nil {
		t.Error("expected nil config without a system prompt")
	}
}
