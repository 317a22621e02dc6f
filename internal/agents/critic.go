package agents

import (
	"context"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

// ResumeCriticAgent assesses the structure and readability of the resume.
type ResumeCriticAgent struct {
	desc      agent.Descriptor
	contract  agent.Contract
	completer ai.Completer
	analysis  analysis
}

func NewResumeCritic(c ai.Completer, o Options) (*ResumeCriticAgent, error) {
	d, err := descriptor("ResumeCriticAgent", "Critiques resume structure, formatting and readability", o)
	if err != nil {
		return nil, err
	}
	if err := requireCompleter(d.Name, c); err != nil {
		return nil, err
	}
	return &ResumeCriticAgent{
		desc:      d,
		contract:  sectionContract(d.Name, KeyStructuralAssessment, KeyResume),
		completer: c,
		analysis: analysis{
			task:   "structural_assessment",
			writes: KeyStructuralAssessment,
			reads:  []string{KeyResume},
			instructions: "Review the resume as a hiring manager would skim it. Score its structure from 0 to 100, " +
				"describe its readability in one or two sentences, and list concrete formatting recommendations " +
				"and content suggestions.",
			language: o.Language,
		},
	}, nil
}

func (a *ResumeCriticAgent) Descriptor() agent.Descriptor { return a.desc }

func (a *ResumeCriticAgent) Execute(ctx context.Context, input any) (any, error) {
	return a.analysis.run(ctx, a.desc, a.contract, a.completer, input, func(_, section map[string]interface{}) {
		if section == nil {
			return
		}
		for _, k := range []string{"formattingRecommendations", "suggestions"} {
			if v, ok := section[k]; ok {
				section[k] = normalizeList(v, false)
			}
		}
	})
}
