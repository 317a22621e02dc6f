package agents

import (
	"time"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/pkg/ai"
)

const version = "1.0.0"

// Options are the per-agent settings taken from configuration. A zero
// Timeout leaves the pipeline default in force.
type Options struct {
	Timeout  time.Duration
	Language string
}

func descriptor(name, description string, o Options) (agent.Descriptor, error) {
	d := agent.Descriptor{Name: name, Description: description, Version: version, Timeout: o.Timeout}
	if err := d.Validate(); err != nil {
		return agent.Descriptor{}, err
	}
	return d, nil
}

func requireCompleter(name string, c ai.Completer) error {
	if c == nil {
		return agent.Configurationf(name, "completion service is required")
	}
	return nil
}
