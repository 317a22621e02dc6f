package agents

import (
	"context"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

// InterviewCoachAgent prepares interview questions aimed at the
// candidate's gaps for the target role.
type InterviewCoachAgent struct {
	desc      agent.Descriptor
	contract  agent.Contract
	completer ai.Completer
	analysis  analysis
}

func NewInterviewCoach(c ai.Completer, o Options) (*InterviewCoachAgent, error) {
	d, err := descriptor("InterviewCoachAgent", "Prepares targeted interview questions", o)
	if err != nil {
		return nil, err
	}
	if err := requireCompleter(d.Name, c); err != nil {
		return nil, err
	}
	return &InterviewCoachAgent{
		desc:      d,
		contract:  sectionContract(d.Name, KeyInterviewPrep, KeyResume, KeyJobDescription),
		completer: c,
		analysis: analysis{
			task:   "interview_prep",
			writes: KeyInterviewPrep,
			reads:  []string{KeyResume, KeyJobDescription},
			instructions: "You are a senior hiring manager preparing a technical interview. Be professional, " +
				"challenging, but fair. Write questions that probe the gaps between the resume and the job, " +
				"each with a one-line rationale, and list the focus areas the candidate should prepare.",
			language: o.Language,
		},
	}, nil
}

func (a *InterviewCoachAgent) Descriptor() agent.Descriptor { return a.desc }

func (a *InterviewCoachAgent) Execute(ctx context.Context, input any) (any, error) {
	return a.analysis.run(ctx, a.desc, a.contract, a.completer, input, func(doc, section map[string]interface{}) {
		if section == nil {
			return
		}
		if len(stringsOf(section["focusAreas"])) > 0 {
			return
		}
		// fall back to the alignment gaps when an earlier stage found them
		if al, ok := doc[KeyAlignment].(map[string]interface{}); ok {
			if missing := stringsOf(al["missingKeywords"]); len(missing) > 0 {
				areas := make([]interface{}, len(missing))
				for i, m := range missing {
					areas[i] = m
				}
				section["focusAreas"] = areas
			}
		}
	})
}
