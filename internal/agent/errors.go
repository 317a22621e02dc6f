package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comatrix-1/interviewready/internal/model"
)

// Kind tags an Error with its place in the taxonomy.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindExecution     Kind = "execution"
	KindTimeout       Kind = "timeout"
	KindCancelled     Kind = "cancelled"
)

var (
	// ErrConfiguration matches errors raised while constructing agents or
	// pipelines from an invalid descriptor or config.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation matches stage input/output that did not conform to its shape.
	ErrValidation = errors.New("validation error")
	// ErrExecution matches failures of the agent's own logic.
	ErrExecution = errors.New("execution error")
	// ErrTimeout matches stages that did not settle within their timeout.
	ErrTimeout = errors.New("timeout")
	// ErrCancelled matches runs stopped by the caller.
	ErrCancelled = errors.New("cancelled")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindValidation:
		return ErrValidation
	case KindTimeout:
		return ErrTimeout
	case KindCancelled:
		return ErrCancelled
	default:
		return ErrExecution
	}
}

// Error is the typed failure carried in stage and pipeline results.
type Error struct {
	Kind       Kind
	Agent      string
	Message    string
	Violations []model.Violation
	// Timeout is the limit that was exceeded, set for KindTimeout.
	Timeout time.Duration
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Agent == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Agent, e.Message)
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return e != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

type errorJSON struct {
	Kind       Kind              `json:"kind"`
	Agent      string            `json:"agent,omitempty"`
	Message    string            `json:"message"`
	Violations []model.Violation `json:"violations,omitempty"`
	TimeoutMs  int64             `json:"timeoutMs,omitempty"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorJSON{
		Kind:       e.Kind,
		Agent:      e.Agent,
		Message:    e.Message,
		Violations: e.Violations,
		TimeoutMs:  e.Timeout.Milliseconds(),
	})
}

func (e *Error) UnmarshalJSON(b []byte) error {
	var raw errorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Error{
		Kind:       raw.Kind,
		Agent:      raw.Agent,
		Message:    raw.Message,
		Violations: raw.Violations,
		Timeout:    time.Duration(raw.TimeoutMs) * time.Millisecond,
	}
	return nil
}

// Configurationf builds a ConfigurationError.
func Configurationf(agentName, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Agent: agentName, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError keeping every violation of verr.
func Validation(agentName, what string, verr *model.ValidationError) *Error {
	e := &Error{Kind: KindValidation, Agent: agentName, Message: what}
	if verr != nil {
		e.Violations = append([]model.Violation(nil), verr.Violations...)
		parts := make([]string, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			parts = append(parts, v.String())
		}
		e.Message = what + ": " + strings.Join(parts, "; ")
		e.Err = verr
	}
	return e
}

// Execution wraps a failure of the agent's own logic.
func Execution(agentName string, err error) *Error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindExecution, Agent: agentName, Message: msg, Err: err}
}

// Timeout builds the error synthesized when a stage exceeds d. The
// message names the agent so it reads on its own.
func Timeout(agentName string, d time.Duration) *Error {
	name := agentName
	if name == "" {
		name = "stage"
	}
	return &Error{
		Kind:    KindTimeout,
		Agent:   agentName,
		Message: fmt.Sprintf("%s timed out after %dms", name, d.Milliseconds()),
		Timeout: d,
		Err:     context.DeadlineExceeded,
	}
}

// Cancelled builds the error for a run stopped by its caller.
func Cancelled(agentName string, cause error) *Error {
	if cause == nil {
		cause = context.Canceled
	}
	return &Error{Kind: KindCancelled, Agent: agentName, Message: "run cancelled: " + cause.Error(), Err: cause}
}

// Wrap converts any error into an *Error attributed to agentName. A
// recognised *Error is returned as a copy with the agent name filled in if
// it was missing; schema failures become ValidationErrors; anything else
// becomes an ExecutionError with the original message.
func Wrap(agentName string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		cp := *ae
		if cp.Agent == "" {
			cp.Agent = agentName
		}
		return &cp
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return Validation(agentName, "validation failed", verr)
	}
	return Execution(agentName, err)
}
