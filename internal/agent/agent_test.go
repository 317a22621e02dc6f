package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/comatrix-1/interviewready/internal/model"
)

func TestNewDescriptorValid(t *testing.T) {
	d, err := NewDescriptor(map[string]any{
		"name":        "ExtractorAgent",
		"description": "Extracts structured data",
		"version":     "1.0.0",
		"timeoutMs":   30000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", d.Timeout)
	}
	want := Info{Name: "ExtractorAgent", Description: "Extracts structured data", Version: "1.0.0"}
	if d.Info() != want {
		t.Fatalf("expected %+v, got %+v", want, d.Info())
	}
}

func TestNewDescriptorTimeoutOptional(t *testing.T) {
	d, err := NewDescriptor(map[string]any{"name": "A", "description": "", "version": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Timeout != 0 {
		t.Fatalf("expected inherited timeout, got %s", d.Timeout)
	}
}

func TestNewDescriptorInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		path string
	}{
		{"wrong name type", map[string]any{"name": 123, "description": "x", "version": "1"}, "name"},
		{"missing version", map[string]any{"name": "A", "description": "x"}, "version"},
		{"zero timeout", map[string]any{"name": "A", "description": "x", "version": "1", "timeoutMs": 0}, "timeoutMs"},
		{"fractional timeout", map[string]any{"name": "A", "description": "x", "version": "1", "timeoutMs": 1.5}, "timeoutMs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.raw)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ae *Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *Error, got %T", err)
			}
			found := false
			for _, v := range ae.Violations {
				if v.Path == tt.path {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected violation at %q, got %+v", tt.path, ae.Violations)
			}
		})
	}
}

func TestDescriptorValidateRejectsNegativeTimeout(t *testing.T) {
	err := Descriptor{Name: "A", Version: "1", Timeout: -time.Second}.Validate()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestWrapPreservesRecognisedErrors(t *testing.T) {
	orig := &Error{Kind: KindTimeout, Message: "slow"}
	got := Wrap("B", orig)
	if got.Agent != "B" || got.Kind != KindTimeout {
		t.Fatalf("unexpected wrap: %+v", got)
	}
	if orig.Agent != "" {
		t.Fatal("Wrap mutated the original error")
	}

	tagged := &Error{Kind: KindValidation, Agent: "A", Message: "bad"}
	if got := Wrap("B", fmt.Errorf("context: %w", tagged)); got.Agent != "A" || !errors.Is(got, ErrValidation) {
		t.Fatalf("expected original tag kept, got %+v", got)
	}
}

func TestWrapConvertsUntypedErrors(t *testing.T) {
	cause := errors.New("boom")
	got := Wrap("B", cause)
	if !errors.Is(got, ErrExecution) {
		t.Fatalf("expected execution kind, got %v", got.Kind)
	}
	if !errors.Is(got, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if got.Error() != "[B] boom" {
		t.Fatalf("unexpected message %q", got.Error())
	}
	if Wrap("B", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestWrapConvertsSchemaErrors(t *testing.T) {
	verr := &model.ValidationError{Shape: "x", Violations: []model.Violation{{Path: "summary", Message: "summary is required"}}}
	got := Wrap("C", verr)
	if !errors.Is(got, ErrValidation) || len(got.Violations) != 1 {
		t.Fatalf("unexpected wrap: %+v", got)
	}
}

func TestTimeoutMessage(t *testing.T) {
	err := Timeout("SlowAgent", 100*time.Millisecond)
	if err.Message != "SlowAgent timed out after 100ms" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.Error() != "[SlowAgent] SlowAgent timed out after 100ms" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	if anon := Timeout("", time.Second); anon.Message != "stage timed out after 1000ms" {
		t.Fatalf("unexpected message %q", anon.Message)
	}
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected timeout and deadline sentinels to match")
	}
}

func TestErrorJSONRoundTrip(t *testing.T) {
	in := Timeout("SlowAgent", 250*time.Millisecond)
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"timeoutMs":250`) || !strings.Contains(string(b), `"kind":"timeout"`) {
		t.Fatalf("unexpected JSON %s", b)
	}
	var out Error
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Timeout != in.Timeout || out.Agent != in.Agent || out.Message != in.Message {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestContractValidation(t *testing.T) {
	d := Descriptor{Name: "Critic", Version: "1"}
	c := Contract{
		Input:  model.MustShape("in", model.Object(map[string]interface{}{"resume": map[string]interface{}{"type": "object"}}, "resume")),
		Output: model.MustShape("out", model.Object(map[string]interface{}{"step": map[string]interface{}{"type": "integer"}}, "step")),
	}
	if _, err := c.DecodeInput(d, map[string]any{}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err := c.CheckOutput(d, map[string]any{"other": 1})
	var ae *Error
	if !errors.As(err, &ae) || ae.Agent != "Critic" {
		t.Fatalf("expected tagged error, got %v", err)
	}
	if len(ae.Violations) != 1 || ae.Violations[0].Path != "step" {
		t.Fatalf("expected step violation, got %+v", ae.Violations)
	}
	if !strings.Contains(ae.Message, "step") {
		t.Fatalf("expected message to name the path, got %q", ae.Message)
	}
}

func TestNewFunc(t *testing.T) {
	if _, err := NewFunc(Descriptor{Name: "", Version: "1"}, func(context.Context, any) (any, error) { return nil, nil }); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	f, err := NewFunc(Descriptor{Name: "Echo", Version: "1"}, func(_ context.Context, in any) (any, error) { return in, nil })
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Execute(context.Background(), "x")
	if err != nil || out != "x" {
		t.Fatalf("unexpected result %v %v", out, err)
	}
}
