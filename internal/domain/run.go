package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/comatrix-1/interviewready/internal/agent"
)

type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further status change is expected.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var ErrRunNotFound = errors.New("optimization run not found")

// StageRecord is the persisted form of one stage result.
type StageRecord struct {
	Index      int          `json:"index"`
	AgentName  string       `json:"agent_name"`
	Success    bool         `json:"success"`
	Error      *agent.Error `json:"error,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

// OptimizationRun is one pipeline run requested by a user. Output holds the
// final document of a completed run; Error the failure of any other
// terminal run.
type OptimizationRun struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	Status          RunStatus              `json:"status"`
	Input           map[string]interface{} `json:"input"`
	Output          map[string]interface{} `json:"output,omitempty"`
	Error           *agent.Error           `json:"error,omitempty"`
	Stages          []StageRecord          `json:"stages"`
	TotalDurationMs int64                  `json:"total_duration_ms"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewRun returns a pending run for userID.
func NewRun(userID uuid.UUID, input map[string]interface{}) *OptimizationRun {
	now := time.Now().UTC()
	return &OptimizationRun{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    StatusPending,
		Input:     input,
		Stages:    []StageRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no slices with r. Input and Output are
// treated as immutable once set and are shared.
func (r *OptimizationRun) Clone() *OptimizationRun {
	cp := *r
	cp.Stages = make([]StageRecord, len(r.Stages))
	copy(cp.Stages, r.Stages)
	if r.Error != nil {
		e := *r.Error
		cp.Error = &e
	}
	return &cp
}
