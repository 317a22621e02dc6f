package model

import (
	"errors"
	"reflect"
	"testing"
)

func optionalShape(t *testing.T) *Shape {
	t.Helper()
	s, err := ShapeFromValue("settings", map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name":  map[string]interface{}{"type": "string", "default": "anon"},
			"limit": map[string]interface{}{"type": "integer", "default": 10},
			"nested": map[string]interface{}{
				"type":    "object",
				"default": map[string]interface{}{},
				"properties": map[string]interface{}{
					"debug": map[string]interface{}{"type": "boolean", "default": false},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return s
}

func TestValidateFillsDefaultsOnEmptyObject(t *testing.T) {
	out, err := Validate(optionalShape(t), map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]interface{}{
		"name":   "anon",
		"limit":  float64(10),
		"nested": map[string]interface{}{"debug": false},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	in := map[string]interface{}{"name": "x"}
	if _, err := Validate(optionalShape(t), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in) != 1 {
		t.Fatalf("input was mutated: %v", in)
	}
}

func TestValidateFailureReturnsNoValue(t *testing.T) {
	out, err := Validate(optionalShape(t), map[string]interface{}{"limit": "ten"})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Fatalf("expected no value on failure, got %v", out)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Path != "limit" {
		t.Fatalf("unexpected violations: %+v", verr.Violations)
	}
}

func TestValidateReportsMissingFieldPath(t *testing.T) {
	resume := MustLoad("resume")
	_, err := Validate(resume, map[string]interface{}{
		"experience": []interface{}{
			map[string]interface{}{"company": "Acme", "start_date": "2020-01", "end_date": "present", "bullets": []interface{}{}},
		},
		"skills":    []interface{}{"go"},
		"education": []interface{}{},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	paths := map[string]bool{}
	for _, v := range verr.Violations {
		paths[v.Path] = true
	}
	for _, want := range []string{"summary", "experience.0.role"} {
		if !paths[want] {
			t.Fatalf("expected violation at %q, got %+v", want, verr.Violations)
		}
	}
}

func TestValidateRejectsEmptyNonEmptyArray(t *testing.T) {
	_, err := Validate(MustLoad("resume"), map[string]interface{}{
		"summary":    "Engineer",
		"experience": []interface{}{},
		"skills":     []interface{}{},
		"education":  []interface{}{},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Violations[0].Path != "experience" {
		t.Fatalf("expected experience violation, got %+v", verr.Violations)
	}
}

func TestValidateRefinements(t *testing.T) {
	tests := []struct {
		name  string
		shape string
		value map[string]interface{}
		path  string
	}{
		{
			name:  "date pattern",
			shape: "resume",
			value: map[string]interface{}{
				"summary": "Engineer",
				"experience": []interface{}{
					map[string]interface{}{"company": "Acme", "role": "Dev", "start_date": "Jan 2020", "end_date": "present", "bullets": []interface{}{}},
				},
				"skills":    []interface{}{},
				"education": []interface{}{},
			},
			path: "experience.0.start_date",
		},
		{
			name:  "score range",
			shape: "alignment",
			value: map[string]interface{}{
				"overallScore":     120,
				"matchingKeywords": []interface{}{},
				"missingKeywords":  []interface{}{},
				"roleFitAnalysis":  "good",
			},
			path: "overallScore",
		},
		{
			name:  "seniority enum",
			shape: "job_description",
			value: map[string]interface{}{
				"title":            "Engineer",
				"required_skills":  []interface{}{},
				"seniority":        "intern",
				"responsibilities": []interface{}{},
				"keywords":         []interface{}{},
			},
			path: "seniority",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(MustLoad(tt.shape), tt.value)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Violations[0].Path != tt.path {
				t.Fatalf("expected path %q, got %+v", tt.path, verr.Violations)
			}
		})
	}
}

func TestValidateAcceptsTypedValues(t *testing.T) {
	in := Alignment{
		OverallScore:     72,
		MatchingKeywords: []string{"go"},
		MissingKeywords:  []string{"kubernetes"},
		RoleFitAnalysis:  "Strong backend fit.",
	}
	out, err := ValidateMap(MustLoad("alignment"), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["overallScore"] != float64(72) {
		t.Fatalf("expected JSON-form number, got %T %v", out["overallScore"], out["overallScore"])
	}
	var decoded Alignment
	if err := Decode(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, in) {
		t.Fatalf("expected %+v, got %+v", in, decoded)
	}
}

func TestValidateDefaultsSeniority(t *testing.T) {
	out, err := ValidateMap(MustLoad("job_description"), map[string]interface{}{
		"title":            "Backend Engineer",
		"required_skills":  []interface{}{"go"},
		"responsibilities": []interface{}{"build services"},
		"keywords":         []interface{}{"go"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["seniority"] != SeniorityMid {
		t.Fatalf("expected default seniority, got %v", out["seniority"])
	}
	if pref, ok := out["preferred_skills"].([]interface{}); !ok || len(pref) != 0 {
		t.Fatalf("expected empty preferred_skills default, got %v", out["preferred_skills"])
	}
}

func TestValidateRejectsUnencodableValue(t *testing.T) {
	_, err := Validate(optionalShape(t), map[string]interface{}{"ch": make(chan int)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Violations[0].Path != RootPath {
		t.Fatalf("expected root violation, got %+v", verr.Violations)
	}
}
