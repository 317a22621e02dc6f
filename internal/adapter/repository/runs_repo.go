package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/domain"
)

// RunsRepo stores optimization runs in Postgres. With a nil pool it
// accepts writes and finds nothing, so the service runs without a database.
type RunsRepo struct {
	pool *pgxpool.Pool
}

func NewRunsRepo(pool *pgxpool.Pool) *RunsRepo {
	return &RunsRepo{pool: pool}
}

const runColumns = `id, user_id, status, input, output, error, total_duration_ms, created_at, updated_at`

func (r *RunsRepo) Save(ctx context.Context, run *domain.OptimizationRun) error {
	if r.pool == nil {
		return nil
	}
	inputB, err := marshalJSON(run.Input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	outputB, err := marshalJSON(run.Output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var errB []byte
	if run.Error != nil {
		if errB, err = json.Marshal(run.Error); err != nil {
			return fmt.Errorf("encode error: %w", err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `INSERT INTO optimization_runs (`+runColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, output = EXCLUDED.output, error = EXCLUDED.error, total_duration_ms = EXCLUDED.total_duration_ms, updated_at = EXCLUDED.updated_at`,
		run.ID, run.UserID, string(run.Status), inputB, outputB, errB, run.TotalDurationMs, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM run_stages WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear stages: %w", err)
	}
	if len(run.Stages) > 0 {
		b := &pgx.Batch{}
		for _, s := range run.Stages {
			var stageErr []byte
			if s.Error != nil {
				if stageErr, err = json.Marshal(s.Error); err != nil {
					return fmt.Errorf("encode stage error: %w", err)
				}
			}
			b.Queue(`INSERT INTO run_stages (run_id, idx, agent_name, success, error, duration_ms) VALUES ($1,$2,$3,$4,$5,$6)`,
				run.ID, s.Index, s.AgentName, s.Success, stageErr, s.DurationMs)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert stages: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *RunsRepo) Get(ctx context.Context, id uuid.UUID) (*domain.OptimizationRun, error) {
	if r.pool == nil {
		return nil, domain.ErrRunNotFound
	}
	run, err := scanRun(r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadStages(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListForUser returns the user's runs, newest first.
func (r *RunsRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.OptimizationRun, error) {
	if r.pool == nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM optimization_runs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	var runs []*domain.OptimizationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, run := range runs {
		if err := r.loadStages(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *RunsRepo) loadStages(ctx context.Context, run *domain.OptimizationRun) error {
	run.Stages = []domain.StageRecord{}
	err := queryJSON(ctx, r.pool, &run.Stages, `SELECT COALESCE(json_agg(json_build_object(
			'index', idx, 'agent_name', agent_name, 'success', success, 'error', error, 'duration_ms', duration_ms
		) ORDER BY idx), '[]'::json) FROM run_stages WHERE run_id = $1`, run.ID)
	if err != nil {
		return fmt.Errorf("load stages for %s: %w", run.ID, err)
	}
	return nil
}

func scanRun(row pgx.Row) (*domain.OptimizationRun, error) {
	var (
		run                     domain.OptimizationRun
		status                  string
		inputB, outputB, errorB []byte
	)
	if err := row.Scan(&run.ID, &run.UserID, &status, &inputB, &outputB, &errorB, &run.TotalDurationMs, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if len(inputB) > 0 {
		if err := json.Unmarshal(inputB, &run.Input); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	}
	if len(outputB) > 0 {
		if err := json.Unmarshal(outputB, &run.Output); err != nil {
			return nil, fmt.Errorf("decode output: %w", err)
		}
	}
	if len(errorB) > 0 {
		var e agent.Error
		if err := json.Unmarshal(errorB, &e); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		run.Error = &e
	}
	return &run, nil
}
