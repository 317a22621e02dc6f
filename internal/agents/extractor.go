package agents

import (
	"context"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/model"
	"github.com/comatrix-1/interviewready/pkg/ai"
	"github.com/comatrix-1/interviewready/pkg/document"
)

// DefaultMaxTextLength bounds each extracted text, in characters.
const DefaultMaxTextLength = 10000

// Input kinds accepted by the extractor.
const (
	KindText = "text"
	KindFile = "file"
)

// TextInput carries pasted resume and job-description text.
type TextInput struct {
	Kind               string `json:"kind"`
	ResumeText         string `json:"resumeText"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

// File is an uploaded document.
type File struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"contentBase64"`
}

// FileInput carries uploaded resume and job-description documents.
type FileInput struct {
	Kind           string `json:"kind"`
	Resume         File   `json:"resume"`
	JobDescription File   `json:"jobDescription"`
}

// NewTextInput builds the first-stage input for pasted text.
func NewTextInput(resume, jobDescription string) TextInput {
	return TextInput{Kind: KindText, ResumeText: resume, JobDescriptionText: jobDescription}
}

// NewFileInput builds the first-stage input for uploaded documents.
func NewFileInput(resumeName string, resume []byte, jdName string, jd []byte) FileInput {
	return FileInput{
		Kind:           KindFile,
		Resume:         File{Filename: resumeName, ContentBase64: base64.StdEncoding.EncodeToString(resume)},
		JobDescription: File{Filename: jdName, ContentBase64: base64.StdEncoding.EncodeToString(jd)},
	}
}

var kindShape = model.MustShape("extractor input kind", model.Object(map[string]interface{}{
	"kind": map[string]interface{}{"type": "string", "enum": []interface{}{KindText, KindFile}},
}, "kind"))

// ExtractorOptions extends Options with the text limit.
type ExtractorOptions struct {
	Options
	MaxTextLength int
}

// ExtractorAgent turns raw resume and job-description input into the
// structured resume and jobDescription sections.
type ExtractorAgent struct {
	desc      agent.Descriptor
	text      agent.Contract
	file      agent.Contract
	completer ai.Completer
	extractor document.Extractor
	maxLen    int
	language  string
}

// NewExtractor builds the first stage. A nil extractor selects
// document.Default().
func NewExtractor(c ai.Completer, ex document.Extractor, o ExtractorOptions) (*ExtractorAgent, error) {
	d, err := descriptor("ExtractorAgent", "Extracts structured data from unstructured resume and job description text", o.Options)
	if err != nil {
		return nil, err
	}
	if err := requireCompleter(d.Name, c); err != nil {
		return nil, err
	}
	if o.MaxTextLength < 0 {
		return nil, agent.Configurationf(d.Name, "maxTextLength must be positive, got %d", o.MaxTextLength)
	}
	if o.MaxTextLength == 0 {
		o.MaxTextLength = DefaultMaxTextLength
	}
	if ex == nil {
		ex = document.Default()
	}
	out := documentShape(d.Name+" output", KeyResume, KeyJobDescription)
	return &ExtractorAgent{
		desc:      d,
		text:      agent.Contract{Input: model.MustLoad("extractor_text_input"), Output: out},
		file:      agent.Contract{Input: model.MustLoad("extractor_file_input"), Output: out},
		completer: c,
		extractor: ex,
		maxLen:    o.MaxTextLength,
		language:  o.Language,
	}, nil
}

func (a *ExtractorAgent) Descriptor() agent.Descriptor { return a.desc }

func (a *ExtractorAgent) Execute(ctx context.Context, input any) (any, error) {
	kind, err := a.kind(input)
	if err != nil {
		return nil, err
	}

	var resumeText, jdText string
	switch kind {
	case KindText:
		var in TextInput
		if _, err := a.text.DecodeInput(a.desc, input, &in); err != nil {
			return nil, err
		}
		resumeText, jdText = in.ResumeText, in.JobDescriptionText
	default:
		var in FileInput
		if _, err := a.file.DecodeInput(a.desc, input, &in); err != nil {
			return nil, err
		}
		if resumeText, err = a.read(ctx, "resume", in.Resume); err != nil {
			return nil, err
		}
		if jdText, err = a.read(ctx, "job description", in.JobDescription); err != nil {
			return nil, err
		}
	}

	if err := a.checkLength("Resume text", resumeText); err != nil {
		return nil, err
	}
	if err := a.checkLength("Job description text", jdText); err != nil {
		return nil, err
	}

	resume, err := a.complete(ctx, "extract_resume", KeyResume, resumeText,
		"Extract the resume into the given schema. Dates are YYYY-MM or \"present\". "+
			"List skills as short names. Do not invent experience that is not in the text.")
	if err != nil {
		return nil, err
	}
	normalizeResume(resume)

	jd, err := a.complete(ctx, "extract_job_description", KeyJobDescription, jdText,
		"Extract the job description into the given schema. seniority is one of junior, mid, senior or lead. "+
			"keywords are the technologies and practices a screener would search for.")
	if err != nil {
		return nil, err
	}
	normalizeJobDescription(jd)

	return a.text.CheckOutput(a.desc, map[string]interface{}{
		KeyResume:         resume,
		KeyJobDescription: jd,
	})
}

// kind reads the input discriminator once; the variant shape is then
// chosen from it.
func (a *ExtractorAgent) kind(input any) (string, error) {
	m, err := agent.Contract{Input: kindShape}.DecodeInput(a.desc, input, nil)
	if err != nil {
		return "", err
	}
	k, _ := m["kind"].(string)
	return k, nil
}

func (a *ExtractorAgent) read(ctx context.Context, what string, f File) (string, error) {
	data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
	if err != nil {
		return "", agent.Execution(a.desc.Name, fmt.Errorf("%s: invalid base64 content: %w", what, err))
	}
	text, err := a.extractor.Extract(ctx, f.Filename, data)
	if err != nil {
		return "", agent.Execution(a.desc.Name, fmt.Errorf("failed to parse document %s: %w", f.Filename, err))
	}
	return text, nil
}

func (a *ExtractorAgent) checkLength(what, s string) error {
	if n := utf8.RuneCountInString(s); n > a.maxLen {
		return agent.Execution(a.desc.Name, fmt.Errorf("%s exceeds maximum length of %d characters (got %d)", what, a.maxLen, n))
	}
	return nil
}

func (a *ExtractorAgent) complete(ctx context.Context, task, key, text, instructions string) (map[string]interface{}, error) {
	var out map[string]interface{}
	req := ai.Request{
		Task:         task,
		Instructions: instructions,
		Context:      map[string]interface{}{"text": text},
		Schema:       model.MustDoc(shapeNames[key]),
		Language:     a.language,
	}
	if err := ai.CompleteJSON(ctx, a.completer, req, &out); err != nil {
		return nil, agent.Execution(a.desc.Name, fmt.Errorf("%s: %w", task, err))
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}
