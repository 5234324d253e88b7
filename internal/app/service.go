package app

import (
	"storyweaver/internal/imagegen"
	"storyweaver/internal/llm"
	"storyweaver/internal/visuals"
	"storyweaver/pkg/config"
	"storyweaver/pkg/prompts"
)

type Service struct {
	cfg       *config.Config
	llm       llm.Client
	describer *visuals.Describer
	images    *imagegen.Chain
	prompts   *prompts.Prompts
}

type ServiceOptions struct {
	Config    *config.Config
	LLM       llm.Client
	Describer *visuals.Describer
	Images    *imagegen.Chain
	Prompts   *prompts.Prompts
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:       opts.Config,
		llm:       opts.LLM,
		describer: opts.Describer,
		images:    opts.Images,
		prompts:   opts.Prompts,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) LLM() llm.Client {
	return s.llm
}

func (s *Service) Describer() *visuals.Describer {
	return s.describer
}

func (s *Service) Images() *imagegen.Chain {
	return s.images
}

func (s *Service) Prompts() *prompts.Prompts {
	return s.prompts
}
