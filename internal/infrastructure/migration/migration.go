package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema steps in the order they are applied.
var Migrations = []Migration{
	{
		Name: "create_optimization_runs",
		SQL: `CREATE TABLE IF NOT EXISTS optimization_runs (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			status TEXT NOT NULL,
			input JSONB NOT NULL DEFAULT '{}'::jsonb,
			output JSONB,
			error JSONB,
			total_duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "create_run_stages",
		SQL: `CREATE TABLE IF NOT EXISTS run_stages (
			run_id UUID NOT NULL REFERENCES optimization_runs(id) ON DELETE CASCADE,
			idx INT NOT NULL,
			agent_name TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			error JSONB,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, idx)
		)`,
	},
	{
		Name: "index_optimization_runs_user",
		SQL:  `CREATE INDEX IF NOT EXISTS optimization_runs_user_created_idx ON optimization_runs (user_id, created_at DESC)`,
	},
}

// RunMigrations applies every migration in order and stops at the first
// failure.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log.Info("Starting database migrations", "count", len(Migrations))
	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			log.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		log.Info("Migration completed", "name", m.Name)
	}
	log.Info("All migrations completed successfully")
	return nil
}
