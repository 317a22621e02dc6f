// Package agents holds the resume-optimisation stages run by the pipeline.
package agents

import (
	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/config"
	"github.com/comatrix-1/interviewready/pkg/ai"
	"github.com/comatrix-1/interviewready/pkg/document"
)

// Standard builds the default five stages in execution order: extraction,
// structural critique, content analysis, job alignment, interview coaching.
func Standard(cfg *config.Config, c ai.Completer, ex document.Extractor) ([]agent.Agent, error) {
	lang := cfg.AI.Language
	opts := func(s config.Stage) Options { return Options{Timeout: s.Timeout(), Language: lang} }

	extractor, err := NewExtractor(c, ex, ExtractorOptions{
		Options:       opts(cfg.Agents.Extractor.Stage),
		MaxTextLength: cfg.Agents.Extractor.MaxTextLength,
	})
	if err != nil {
		return nil, err
	}
	critic, err := NewResumeCritic(c, opts(cfg.Agents.Critic))
	if err != nil {
		return nil, err
	}
	content, err := NewContentStrength(c, opts(cfg.Agents.Content))
	if err != nil {
		return nil, err
	}
	alignment, err := NewJobAlignment(c, opts(cfg.Agents.Alignment))
	if err != nil {
		return nil, err
	}
	coach, err := NewInterviewCoach(c, opts(cfg.Agents.Coach))
	if err != nil {
		return nil, err
	}
	return []agent.Agent{extractor, critic, content, alignment, coach}, nil
}
