// Package agent defines the contract every pipeline stage implements: a
// validated identity (Descriptor), an Execute method over JSON-form values,
// and the error taxonomy stages fail with.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/comatrix-1/interviewready/internal/model"
)

// Agent is one named, versioned unit of work.
//
// Execute must either return a value or an error, never both. Agents hold
// only fixed configuration so one instance can serve concurrent runs.
type Agent interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, input any) (any, error)
}

var descriptorShape = model.MustLoad("descriptor")

// Descriptor identifies an agent in traces and error messages. A zero
// Timeout means the pipeline default applies.
type Descriptor struct {
	Name        string
	Description string
	Version     string
	Timeout     time.Duration
}

// Info is the read-only view returned by introspection.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type descriptorJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	TimeoutMs   int64  `json:"timeoutMs,omitempty"`
}

// NewDescriptor validates a raw descriptor (name, description, version,
// optional timeoutMs) and returns it. Invalid input yields a
// ConfigurationError listing every violation.
func NewDescriptor(raw map[string]any) (Descriptor, error) {
	name, _ := raw["name"].(string)
	out, err := model.Validate(descriptorShape, raw)
	if err != nil {
		return Descriptor{}, configError(name, err)
	}
	var d descriptorJSON
	if err := model.Decode(out, &d); err != nil {
		return Descriptor{}, Configurationf(name, "invalid descriptor: %v", err)
	}
	return Descriptor{
		Name:        d.Name,
		Description: d.Description,
		Version:     d.Version,
		Timeout:     time.Duration(d.TimeoutMs) * time.Millisecond,
	}, nil
}

// Validate checks a descriptor built as a struct literal.
func (d Descriptor) Validate() error {
	if d.Timeout < 0 || (d.Timeout > 0 && d.Timeout < time.Millisecond) {
		return Configurationf(d.Name, "invalid descriptor: timeout must be a positive number of milliseconds, got %s", d.Timeout)
	}
	_, err := NewDescriptor(d.raw())
	return err
}

func (d Descriptor) raw() map[string]any {
	raw := map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"version":     d.Version,
	}
	if d.Timeout > 0 {
		raw["timeoutMs"] = d.Timeout.Milliseconds()
	}
	return raw
}

// Info returns the identity fields of d.
func (d Descriptor) Info() Info {
	return Info{Name: d.Name, Description: d.Description, Version: d.Version}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s@%s", d.Name, d.Version)
}

func configError(name string, err error) error {
	ae := Wrap(name, err)
	ae.Kind = KindConfiguration
	ae.Message = "invalid descriptor: " + err.Error()
	return ae
}
