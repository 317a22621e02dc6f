package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/comatrix-1/interviewready/internal/agent"
)

// DefaultTimeout applies to stages whose agent declares no timeout and to
// pipelines configured without one.
const DefaultTimeout = 60 * time.Second

// PipelineConfig lists the agents in execution order. A zero Timeout
// selects DefaultTimeout.
type PipelineConfig struct {
	Agents  []agent.Agent
	Timeout time.Duration
}

// StageObserver is called after each stage result is appended.
type StageObserver func(index int, r StageResult)

type PipelineOption func(*Pipeline)

// WithLogger sets the logger used for per-stage diagnostics.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithObserver registers fn to receive stage results as they are produced.
func WithObserver(fn StageObserver) PipelineOption {
	return func(p *Pipeline) { p.observe = fn }
}

// Pipeline runs a fixed list of agents sequentially over one value. It is
// safe for concurrent Runs as long as the agents are.
type Pipeline struct {
	agents  []agent.Agent
	timeout time.Duration
	log     *slog.Logger
	observe StageObserver
}

// NewPipeline validates cfg and returns a pipeline. The agent slice is
// copied; later changes to cfg.Agents do not affect the pipeline.
func NewPipeline(cfg PipelineConfig, opts ...PipelineOption) (*Pipeline, error) {
	if cfg.Timeout < 0 {
		return nil, agent.Configurationf("", "pipeline: timeout must be positive, got %s", cfg.Timeout)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	agents := make([]agent.Agent, len(cfg.Agents))
	for i, a := range cfg.Agents {
		if a == nil {
			return nil, agent.Configurationf("", "pipeline: agent at index %d is nil", i)
		}
		if err := a.Descriptor().Validate(); err != nil {
			return nil, err
		}
		agents[i] = a
	}
	p := &Pipeline{
		agents:  agents,
		timeout: timeout,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Info summarises the pipeline configuration.
type Info struct {
	AgentCount int          `json:"agentCount"`
	TimeoutMs  int64        `json:"timeoutMs"`
	Agents     []agent.Info `json:"agents"`
}

func (p *Pipeline) Info() Info {
	infos := make([]agent.Info, 0, len(p.agents))
	for _, a := range p.agents {
		infos = append(infos, a.Descriptor().Info())
	}
	return Info{AgentCount: len(p.agents), TimeoutMs: p.timeout.Milliseconds(), Agents: infos}
}

// Run executes every agent in order, feeding each one the previous output.
// The first failing stage stops the run; agents after it are never
// invoked. Cancelling ctx abandons the in-flight stage and fails the run
// with a cancelled error. Run never returns an untyped error: every
// failure in the result is an *agent.Error.
func (p *Pipeline) Run(ctx context.Context, input any) PipelineResult {
	start := time.Now()
	res := PipelineResult{
		Stages: make([]StageResult, 0, len(p.agents)),
		State:  RunState{Phase: PhaseNotStarted},
	}
	current := input

	for i, a := range p.agents {
		if err := res.State.Transition(PhaseRunning, i); err != nil {
			return p.abort(res, start, agent.Execution("", err))
		}
		d := a.Descriptor()
		timeout := p.stageTimeout(d)
		p.log.Info("pipeline: executing stage", "stage", i+1, "of", len(p.agents), "agent", d.Name, "timeout_ms", timeout.Milliseconds())

		stageStart := time.Now()
		out, aerr := p.runStage(ctx, a, d, current, timeout)
		sr := StageResult{
			AgentName:  d.Name,
			Success:    aerr == nil,
			Error:      aerr,
			DurationMs: time.Since(stageStart).Milliseconds(),
		}
		res.Stages = append(res.Stages, sr)
		if p.observe != nil {
			p.observe(i, sr)
		}

		if aerr != nil {
			p.log.Error("pipeline: stage failed", "stage", i+1, "agent", d.Name, "kind", string(aerr.Kind), "duration_ms", sr.DurationMs, "error", aerr.Message)
			if err := res.State.Transition(PhaseFailed, i); err != nil {
				return p.abort(res, start, agent.Execution(d.Name, err))
			}
			res.Error = aerr
			res.TotalDurationMs = time.Since(start).Milliseconds()
			return res
		}
		p.log.Info("pipeline: stage completed", "stage", i+1, "agent", d.Name, "duration_ms", sr.DurationMs)
		current = out
	}

	if err := res.State.Transition(PhaseCompleted, len(p.agents)); err != nil {
		return p.abort(res, start, agent.Execution("", err))
	}
	res.Success = true
	res.Data = current
	res.TotalDurationMs = time.Since(start).Milliseconds()
	return res
}

func (p *Pipeline) stageTimeout(d agent.Descriptor) time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return p.timeout
}

func (p *Pipeline) abort(res PipelineResult, start time.Time, err *agent.Error) PipelineResult {
	res.Success = false
	res.Data = nil
	res.Error = err
	res.State.Phase = PhaseFailed
	res.TotalDurationMs = time.Since(start).Milliseconds()
	return res
}

type outcome struct {
	value any
	err   error
}

// runStage races the agent against its timeout and the caller's context.
// A result that arrives once the deadline has passed is reported as a
// timeout, so the timeout wins ties.
func (p *Pipeline) runStage(ctx context.Context, a agent.Agent, d agent.Descriptor, input any, timeout time.Duration) (any, *agent.Error) {
	if err := ctx.Err(); err != nil {
		return nil, agent.Cancelled(d.Name, err)
	}
	started := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		v, err := a.Execute(stageCtx, input)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		if err := ctx.Err(); err != nil {
			return nil, agent.Cancelled(d.Name, err)
		}
		if stageCtx.Err() != nil || time.Since(started) >= timeout {
			return nil, agent.Timeout(d.Name, timeout)
		}
		if o.err != nil {
			return nil, agent.Wrap(d.Name, o.err)
		}
		return o.value, nil
	case <-stageCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, agent.Cancelled(d.Name, err)
		}
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			return nil, agent.Timeout(d.Name, timeout)
		}
		return nil, agent.Cancelled(d.Name, stageCtx.Err())
	}
}
