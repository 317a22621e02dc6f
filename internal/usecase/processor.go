package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/domain"
	"github.com/comatrix-1/interviewready/internal/report"
)

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

type RunsRepo interface {
	Save(ctx context.Context, r *domain.OptimizationRun) error
	Get(ctx context.Context, id uuid.UUID) (*domain.OptimizationRun, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.OptimizationRun, error)
}

var (
	ErrNotCompleted   = errors.New("optimization run has not finished")
	ErrAlreadyRunning = errors.New("optimization run already started")
	ErrNoRenderer     = errors.New("no PDF renderer configured")
)

type ProcessorOption func(*Processor)

// WithRenderRetry sets how often a PDF render is attempted and the base
// delay between attempts, doubled after each failure.
func WithRenderRetry(attempts int, backoff time.Duration) ProcessorOption {
	return func(p *Processor) {
		if attempts > 0 {
			p.renderAttempts = attempts
		}
		if backoff >= 0 {
			p.renderBackoff = backoff
		}
	}
}

// Processor drives optimization runs through a pipeline and keeps their
// persisted state current.
type Processor struct {
	pipeline *Pipeline
	repo     RunsRepo
	renderer Renderer
	log      *slog.Logger

	renderAttempts int
	renderBackoff  time.Duration

	base    context.Context
	stop    context.CancelFunc
	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

// NewProcessor returns a processor. renderer may be nil, in which case
// PDF reports are unavailable.
func NewProcessor(p *Pipeline, repo RunsRepo, r Renderer, log *slog.Logger, opts ...ProcessorOption) *Processor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base, stop := context.WithCancel(context.Background())
	proc := &Processor{
		pipeline:       p,
		repo:           repo,
		renderer:       r,
		log:            log,
		renderAttempts: 3,
		renderBackoff:  time.Second,
		base:           base,
		stop:           stop,
		running:        map[uuid.UUID]context.CancelFunc{},
	}
	for _, opt := range opts {
		opt(proc)
	}
	return proc
}

// Info describes the pipeline the processor runs.
func (p *Processor) Info() Info {
	return p.pipeline.Info()
}

// Process runs the pipeline over run.Input and records the outcome on run.
// The returned error reports persistence failures only; the pipeline's own
// failure is stored on run and in the result.
func (p *Processor) Process(ctx context.Context, run *domain.OptimizationRun) (PipelineResult, error) {
	// Saves are detached from ctx so a run cancelled before it begins still
	// reaches a terminal status.
	store := context.WithoutCancel(ctx)
	run.Status = domain.StatusRunning
	run.UpdatedAt = time.Now().UTC()
	if err := p.repo.Save(store, run); err != nil {
		return PipelineResult{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}

	p.log.Info("processor: starting run", "run_id", run.ID, "user_id", run.UserID)
	res := p.pipeline.Run(ctx, run.Input)
	record(run, res)
	if res.Success {
		p.log.Info("processor: run completed", "run_id", run.ID, "duration_ms", res.TotalDurationMs)
	} else {
		p.log.Warn("processor: run failed", "run_id", run.ID, "status", run.Status, "error", res.Error)
	}

	if err := p.repo.Save(store, run); err != nil {
		return res, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return res, nil
}

func record(run *domain.OptimizationRun, res PipelineResult) {
	run.Stages = make([]domain.StageRecord, 0, len(res.Stages))
	for i, s := range res.Stages {
		run.Stages = append(run.Stages, domain.StageRecord{
			Index:      i,
			AgentName:  s.AgentName,
			Success:    s.Success,
			Error:      s.Error,
			DurationMs: s.DurationMs,
		})
	}
	run.TotalDurationMs = res.TotalDurationMs
	run.UpdatedAt = time.Now().UTC()
	switch {
	case res.Success:
		run.Status = domain.StatusCompleted
		run.Output = outputMap(res.Data)
		run.Error = nil
	case res.Error != nil && res.Error.Kind == agent.KindCancelled:
		run.Status = domain.StatusCancelled
		run.Error = res.Error
	default:
		run.Status = domain.StatusFailed
		run.Error = res.Error
	}
}

// outputMap converts the final pipeline value into the stored object form.
// Non-object values are kept under "value".
func outputMap(v any) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	b, err := json.Marshal(v)
	if err == nil {
		var m map[string]interface{}
		if json.Unmarshal(b, &m) == nil && m != nil {
			return m
		}
	}
	return map[string]interface{}{"value": v}
}

// Start saves run as pending and processes it in the background. The run
// can be stopped with Cancel until it finishes.
func (p *Processor) Start(ctx context.Context, run *domain.OptimizationRun) error {
	p.mu.Lock()
	if _, ok := p.running[run.ID]; ok {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(p.base)
	p.running[run.ID] = cancel
	p.mu.Unlock()

	run.Status = domain.StatusPending
	if err := p.repo.Save(ctx, run); err != nil {
		p.forget(run.ID)
		cancel()
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		defer p.forget(run.ID)
		if _, err := p.Process(runCtx, run); err != nil {
			p.log.Error("processor: run not persisted", "run_id", run.ID, "error", err)
		}
	}()
	return nil
}

func (p *Processor) forget(id uuid.UUID) {
	p.mu.Lock()
	delete(p.running, id)
	p.mu.Unlock()
}

// Cancel stops a run started with Start. It reports whether the run was
// still in progress.
func (p *Processor) Cancel(id uuid.UUID) bool {
	p.mu.Lock()
	cancel, ok := p.running[id]
	p.mu.Unlock()
	if ok {
		p.log.Info("processor: cancelling run", "run_id", id)
		cancel()
	}
	return ok
}

// Active returns the number of runs in progress.
func (p *Processor) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}

// Wait blocks until every started run has finished.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Shutdown cancels all runs in progress and waits for them, or for ctx.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.stop()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReportHTML renders the HTML report of a finished run.
func (p *Processor) ReportHTML(ctx context.Context, id uuid.UUID) (string, error) {
	run, err := p.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !run.Status.Terminal() {
		return "", ErrNotCompleted
	}
	return report.HTML(run)
}

// ReportPDF renders the report of a finished run to PDF, retrying the
// renderer with exponential backoff.
func (p *Processor) ReportPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if p.renderer == nil {
		return nil, ErrNoRenderer
	}
	html, err := p.ReportHTML(ctx, id)
	if err != nil {
		return nil, err
	}

	var renderErr error
	for i := 0; i < p.renderAttempts; i++ {
		pdf, err := p.renderer.RenderHTMLToPDF(ctx, html)
		if err == nil {
			return pdf, nil
		}
		renderErr = err
		p.log.Warn("processor: render attempt failed", "run_id", id, "attempt", i+1, "error", err)
		if i < p.renderAttempts-1 {
			select {
			case <-time.After(p.renderBackoff << i):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("render report after %d attempts: %w", p.renderAttempts, renderErr)
}
