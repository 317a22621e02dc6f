// Command mockai serves the ai-service chat endpoint with fixture answers,
// for running the server or the CLI without a model.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/comatrix-1/interviewready/pkg/ai/aitest"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := aitest.Handler(aitest.Canned(), func(c aitest.Call) {
		logger.Info("mockai: chat", "agent", c.Agent, "task", c.Task, "input_bytes", len(c.Input))
	})
	srv := &http.Server{Addr: *addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	logger.Info("mockai: listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("mockai: server failed", "error", err)
		os.Exit(1)
	}
}
