package usecase

import (
	"fmt"

	"github.com/comatrix-1/interviewready/internal/agent"
)

// Phase is a pipeline run's position in its state machine.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseFailed     Phase = "failed"
	PhaseCompleted  Phase = "completed"
)

// RunState is the current phase plus the index of the stage it refers to
// (meaningful for running and failed).
type RunState struct {
	Phase Phase `json:"phase"`
	Stage int   `json:"stage"`
}

// Transition moves s to (to, stage). Allowed moves:
//
//	not_started -> running(0) | completed (no stages)
//	running(i)  -> running(i+1) | failed(i) | completed
//
// failed and completed are terminal.
func (s *RunState) Transition(to Phase, stage int) error {
	from := *s
	ok := false
	switch from.Phase {
	case PhaseNotStarted:
		ok = (to == PhaseRunning && stage == 0) || to == PhaseCompleted
	case PhaseRunning:
		switch to {
		case PhaseRunning:
			ok = stage == from.Stage+1
		case PhaseFailed:
			ok = stage == from.Stage
		case PhaseCompleted:
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("pipeline: invalid transition %s(%d) -> %s(%d)", from.Phase, from.Stage, to, stage)
	}
	*s = RunState{Phase: to, Stage: stage}
	return nil
}

// StageResult records one invoked agent.
type StageResult struct {
	AgentName  string       `json:"agentName"`
	Success    bool         `json:"success"`
	Error      *agent.Error `json:"error,omitempty"`
	DurationMs int64        `json:"durationMs"`
}

// PipelineResult is the report of one run. Data is set only when every
// stage succeeded; on failure the last entry of Stages is the failed one.
type PipelineResult struct {
	Success         bool          `json:"success"`
	Data            any           `json:"data,omitempty"`
	Error           *agent.Error  `json:"error,omitempty"`
	Stages          []StageResult `json:"stages"`
	TotalDurationMs int64         `json:"totalDurationMs"`
	State           RunState      `json:"state"`
}

// FailedStage returns the failing stage of an unsuccessful run.
func (r PipelineResult) FailedStage() (StageResult, bool) {
	if r.Success || len(r.Stages) == 0 {
		return StageResult{}, false
	}
	last := r.Stages[len(r.Stages)-1]
	return last, !last.Success
}
