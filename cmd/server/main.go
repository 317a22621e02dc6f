package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	httpadapter "github.com/comatrix-1/interviewready/internal/adapter/http"
	repo "github.com/comatrix-1/interviewready/internal/adapter/repository"
	"github.com/comatrix-1/interviewready/internal/agents"
	"github.com/comatrix-1/interviewready/internal/config"
	"github.com/comatrix-1/interviewready/internal/infrastructure/migration"
	"github.com/comatrix-1/interviewready/internal/usecase"
	"github.com/comatrix-1/interviewready/pkg/ai"
	"github.com/comatrix-1/interviewready/pkg/document"
	infra "github.com/comatrix-1/interviewready/pkg/infrastructure"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Logging.NewLogger(os.Stderr).With("app", cfg.App.Name, "version", cfg.App.Version)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Warn("runs DB not available, using the in-memory run store", "error", err)
	}
	var runs usecase.RunsRepo = repo.NewMemoryRepo()
	if pool != nil {
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool, logger); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		runs = repo.NewRunsRepo(pool)
	}

	client := ai.NewClient(ai.ClientConfig{
		BaseURL:        cfg.AI.BaseURL,
		Language:       cfg.AI.Language,
		RequestTimeout: cfg.AI.RequestTimeout(),
		MaxAttempts:    cfg.AI.MaxAttempts,
		Logger:         logger,
	})
	stages, err := agents.Standard(cfg, client, document.Default())
	if err != nil {
		logger.Error("agents", "error", err)
		os.Exit(2)
	}
	pipeline, err := usecase.NewPipeline(usecase.PipelineConfig{Agents: stages, Timeout: cfg.Pipeline.Timeout()}, usecase.WithLogger(logger))
	if err != nil {
		logger.Error("pipeline", "error", err)
		os.Exit(2)
	}
	processor := usecase.NewProcessor(pipeline, runs, infra.NewChromedpRenderer(cfg.Renderer.ChromePath), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: !cfg.App.Debug})
	httpadapter.NewHandler(processor, runs, logger).Register(app)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr(), "agents", pipeline.Info().AgentCount)
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := processor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("runs still in progress at exit", "error", err)
	}
}
