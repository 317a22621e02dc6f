package agents

import (
	"context"
	"fmt"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/model"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

// Document keys written by the stages.
const (
	KeyResume               = "resume"
	KeyJobDescription       = "jobDescription"
	KeyStructuralAssessment = "structuralAssessment"
	KeyContentAnalysis      = "contentAnalysis"
	KeyAlignment            = "alignment"
	KeyInterviewPrep        = "interviewPrep"
	KeyGovernance           = "governance"
)

// shapeNames maps document keys onto the embedded schema names.
var shapeNames = map[string]string{
	KeyResume:               "resume",
	KeyJobDescription:       "job_description",
	KeyStructuralAssessment: "structural_assessment",
	KeyContentAnalysis:      "content_analysis",
	KeyAlignment:            "alignment",
	KeyInterviewPrep:        "interview_prep",
	KeyGovernance:           "governance",
}

// documentShape builds an object shape requiring the given document keys.
func documentShape(name string, keys ...string) *model.Shape {
	props := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		props[k] = model.MustDoc(shapeNames[k])
	}
	return model.MustShape(name, model.Object(props, keys...))
}

// sectionContract is the contract of an analysis stage that reads the
// keys in reads and adds writes.
func sectionContract(agentName, writes string, reads ...string) agent.Contract {
	return agent.Contract{
		Input:  documentShape(agentName+" input", reads...),
		Output: documentShape(agentName+" output", append(append([]string(nil), reads...), writes)...),
	}
}

// analysis describes one model call producing one document section.
type analysis struct {
	task         string
	writes       string
	reads        []string
	instructions string
	language     string
}

// run validates input, asks the model for the section and returns the
// document with the section added. post, if set, may adjust the section
// before the output is validated.
func (a analysis) run(ctx context.Context, d agent.Descriptor, c agent.Contract, completer ai.Completer, input any, post func(doc, section map[string]interface{})) (any, error) {
	doc, err := c.DecodeInput(d, input, nil)
	if err != nil {
		return nil, err
	}

	reqCtx := make(map[string]interface{}, len(a.reads))
	for _, k := range a.reads {
		reqCtx[k] = doc[k]
	}
	var section map[string]interface{}
	req := ai.Request{
		Task:         a.task,
		Instructions: a.instructions,
		Context:      reqCtx,
		Schema:       model.MustDoc(shapeNames[a.writes]),
		Language:     a.language,
	}
	if err := ai.CompleteJSON(ctx, completer, req, &section); err != nil {
		return nil, agent.Execution(d.Name, fmt.Errorf("%s: %w", a.task, err))
	}
	if post != nil {
		post(doc, section)
	}
	doc[a.writes] = section
	return c.CheckOutput(d, doc)
}
