package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Story  StoryPrompts  `yaml:"story"`
	Visual VisualPrompts `yaml:"visual"`
}

type SystemPrompts struct {
	Story  string `yaml:"story"`
	Visual string `yaml:"visual"`
}

type StoryPrompts struct {
	Generate string `yaml:"generate"`
}

type VisualPrompts struct {
	Describe string `yaml:"describe"`
}

type StoryParams struct {
	Idea     string
	Genre    string
	Tone     string
	Audience string
}

type VisualParams struct {
	SceneNumber int
	SceneText   string
	Genre       string
	Tone        string
	Idea        string
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

// Load reads prompts.yaml from the working directory, falling back to the
// built-in prompts when the file does not exist.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := parse(data)
	if err != nil {
		return nil, err
	}
	return p.withDefaults()
}

func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

// withDefaults fills prompts left out of a partial override file.
func (p *Prompts) withDefaults() (*Prompts, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if p.System.Story == "" {
		p.System.Story = base.System.Story
	}
	if p.System.Visual == "" {
		p.System.Visual = base.System.Visual
	}
	if p.Story.Generate == "" {
		p.Story.Generate = base.Story.Generate
	}
	if p.Visual.Describe == "" {
		p.Visual.Describe = base.Visual.Describe
	}
	return p, nil
}

func (p *Prompts) RenderStory(params StoryParams) (string, error) {
	return render(p.Story.Generate, params)
}

func (p *Prompts) RenderVisual(params VisualParams) (string, error) {
	return render(p.Visual.Describe, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
