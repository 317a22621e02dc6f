package agents

import (
	"context"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

// ContentStrengthAgent weighs the evidence behind the resume's claims.
type ContentStrengthAgent struct {
	desc      agent.Descriptor
	contract  agent.Contract
	completer ai.Completer
	analysis  analysis
}

func NewContentStrength(c ai.Completer, o Options) (*ContentStrengthAgent, error) {
	d, err := descriptor("ContentStrengthAgent", "Analyses content strengths, gaps and quantified impact", o)
	if err != nil {
		return nil, err
	}
	if err := requireCompleter(d.Name, c); err != nil {
		return nil, err
	}
	contract := sectionContract(d.Name, KeyContentAnalysis, KeyResume)
	contract.Output = documentShape(d.Name+" output", KeyResume, KeyContentAnalysis, KeyGovernance)
	return &ContentStrengthAgent{
		desc:      d,
		contract:  contract,
		completer: c,
		analysis: analysis{
			task:   "content_analysis",
			writes: KeyContentAnalysis,
			reads:  []string{KeyResume},
			instructions: "Identify the strongest evidence-backed achievements and the gaps in the resume. " +
				"quantifiedImpactScore is the share of experience bullets (0 to 1) that state a measurable result. " +
				"hallucinationRisk (0 to 1) estimates how much of any suggested improvement is not grounded in the " +
				"original experience. confidence (0 to 1) is how sure you are of this analysis. Only suggest skill improvements the candidate can truthfully claim.",
			language: o.Language,
		},
	}, nil
}

func (a *ContentStrengthAgent) Descriptor() agent.Descriptor { return a.desc }

func (a *ContentStrengthAgent) Execute(ctx context.Context, input any) (any, error) {
	return a.analysis.run(ctx, a.desc, a.contract, a.completer, input, func(doc, section map[string]interface{}) {
		if section == nil {
			return
		}
		for _, k := range []string{"strengths", "gaps", "skillImprovements"} {
			if v, ok := section[k]; ok {
				section[k] = normalizeList(v, false)
			}
		}
		resume, _ := doc[KeyResume].(map[string]interface{})
		doc[KeyGovernance] = audit(resume, section)
	})
}
