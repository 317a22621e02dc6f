package agents

import (
	"context"
	"regexp"
	"strings"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

// JobAlignmentAgent scores how well the resume fits the job description.
// The model provides the score and narrative; keyword coverage is
// computed locally so it is reproducible.
type JobAlignmentAgent struct {
	desc      agent.Descriptor
	contract  agent.Contract
	completer ai.Completer
	analysis  analysis
}

func NewJobAlignment(c ai.Completer, o Options) (*JobAlignmentAgent, error) {
	d, err := descriptor("JobAlignmentAgent", "Aligns the resume with the job description's requirements", o)
	if err != nil {
		return nil, err
	}
	if err := requireCompleter(d.Name, c); err != nil {
		return nil, err
	}
	return &JobAlignmentAgent{
		desc:      d,
		contract:  sectionContract(d.Name, KeyAlignment, KeyResume, KeyJobDescription),
		completer: c,
		analysis: analysis{
			task:   "alignment",
			writes: KeyAlignment,
			reads:  []string{KeyResume, KeyJobDescription},
			instructions: "Compare the resume with the job description. Give an overallScore from 0 to 100, " +
				"the job keywords the resume covers and misses, and a short roleFitAnalysis covering seniority " +
				"and responsibilities.",
			language: o.Language,
		},
	}, nil
}

func (a *JobAlignmentAgent) Descriptor() agent.Descriptor { return a.desc }

func (a *JobAlignmentAgent) Execute(ctx context.Context, input any) (any, error) {
	return a.analysis.run(ctx, a.desc, a.contract, a.completer, input, func(doc, section map[string]interface{}) {
		if section == nil {
			return
		}
		resume, _ := doc[KeyResume].(map[string]interface{})
		jd, _ := doc[KeyJobDescription].(map[string]interface{})
		matching, missing, ok := keywordCoverage(resume, jd)
		if !ok {
			return
		}
		section["matchingKeywords"] = matching
		section["missingKeywords"] = missing
	})
}

// keywordCoverage splits the job's keywords and required skills into those
// the resume mentions and those it does not. ok is false when the job
// lists none.
func keywordCoverage(resume, jd map[string]interface{}) (matching, missing []interface{}, ok bool) {
	var terms []string
	seen := map[string]bool{}
	for _, k := range []string{"keywords", "required_skills"} {
		for _, s := range stringsOf(jd[k]) {
			s = strings.ToLower(squash(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			terms = append(terms, s)
		}
	}
	if len(terms) == 0 {
		return nil, nil, false
	}

	corpus := strings.ToLower(resumeText(resume))
	matching, missing = []interface{}{}, []interface{}{}
	for _, t := range terms {
		if mentions(corpus, t) {
			matching = append(matching, t)
		} else {
			missing = append(missing, t)
		}
	}
	return matching, missing, true
}

func mentions(corpus, term string) bool {
	re, err := regexp.Compile(`(^|[^a-z0-9+#])` + regexp.QuoteMeta(term) + `($|[^a-z0-9+#])`)
	if err != nil {
		return strings.Contains(corpus, term)
	}
	return re.MatchString(corpus)
}

func resumeText(resume map[string]interface{}) string {
	var parts []string
	if s, ok := resume["summary"].(string); ok {
		parts = append(parts, s)
	}
	for _, k := range []string{"skills", "education", "certifications"} {
		parts = append(parts, stringsOf(resume[k])...)
	}
	if exp, ok := resume["experience"].([]interface{}); ok {
		for _, e := range exp {
			item, _ := e.(map[string]interface{})
			if role, ok := item["role"].(string); ok {
				parts = append(parts, role)
			}
			parts = append(parts, stringsOf(item["bullets"])...)
		}
	}
	return strings.Join(parts, "\n")
}

// stringsOf returns the string elements of a JSON array.
func stringsOf(v interface{}) []string {
	arr, _ := v.([]interface{})
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
