package agent

import (
	"context"
	"errors"

	"github.com/comatrix-1/interviewready/internal/model"
)

// Contract pairs the input and output shapes of an agent.
type Contract struct {
	Input  *model.Shape
	Output *model.Shape
}

// DecodeInput validates input against c.Input and, when out is non-nil,
// decodes the defaulted value into it.
func (c Contract) DecodeInput(d Descriptor, input any, out any) (map[string]any, error) {
	m, err := check(d, c.Input, input, "input validation failed")
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := model.Decode(m, out); err != nil {
			return nil, Execution(d.Name, err)
		}
	}
	return m, nil
}

// CheckOutput validates a produced value against c.Output.
func (c Contract) CheckOutput(d Descriptor, value any) (map[string]any, error) {
	return check(d, c.Output, value, "output validation failed")
}

func check(d Descriptor, shape *model.Shape, value any, what string) (map[string]any, error) {
	if shape == nil {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, Execution(d.Name, errors.New(what+": no shape declared for non-object value"))
		}
		return m, nil
	}
	m, err := model.ValidateMap(shape, value)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return nil, Validation(d.Name, what, verr)
		}
		return nil, Execution(d.Name, err)
	}
	return m, nil
}

// Func adapts a plain function into an Agent.
type Func struct {
	desc Descriptor
	fn   func(ctx context.Context, input any) (any, error)
}

// NewFunc validates d and returns an agent that calls fn.
func NewFunc(d Descriptor, fn func(ctx context.Context, input any) (any, error)) (*Func, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, Configurationf(d.Name, "agent function is nil")
	}
	return &Func{desc: d, fn: fn}, nil
}

func (f *Func) Descriptor() Descriptor { return f.desc }

func (f *Func) Execute(ctx context.Context, input any) (any, error) {
	return f.fn(ctx, input)
}
