package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/comatrix-1/interviewready/internal/agent"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := load("", env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.Timeout() != 60*time.Second {
		t.Fatalf("unexpected pipeline timeout %s", cfg.Pipeline.Timeout())
	}
	if cfg.Agents.Extractor.Timeout() != 30*time.Second || cfg.Agents.Extractor.MaxTextLength != 10000 {
		t.Fatalf("unexpected extractor config %+v", cfg.Agents.Extractor)
	}
	if cfg.Agents.Critic.TimeoutMs != 45000 || cfg.Agents.Coach.TimeoutMs != 60000 {
		t.Fatalf("unexpected agent timeouts %+v", cfg.Agents)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Server.Addr() != ":8080" || cfg.AI.MaxAttempts != 3 || cfg.App.Environment != "development" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
pipeline:
  timeoutMs: 5000
agents:
  critic:
    timeoutMs: 1000
ai:
  baseUrl: http://localhost:9000
`)
	cfg, err := load(path, env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.TimeoutMs != 5000 || cfg.Agents.Critic.TimeoutMs != 1000 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Agents.Content.TimeoutMs != 30000 || cfg.Agents.Extractor.MaxTextLength != 10000 {
		t.Fatalf("sibling defaults lost: %+v", cfg.Agents)
	}
	if cfg.AI.BaseURL != "http://localhost:9000" {
		t.Fatalf("unexpected base url %q", cfg.AI.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "logging:\n  level: debug\nserver:\n  port: 9000\n")
	cfg, err := load(path, env(map[string]string{
		"LOG_LEVEL":        "error",
		"PIPELINE_TIMEOUT": "1500",
		"DEBUG":            "true",
		"PORT":             " 3000 ",
		"DATABASE_URL":     "postgres://localhost/interviewready",
		"AI_SERVICE_URL":   "",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Pipeline.TimeoutMs != 1500 || !cfg.App.Debug {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Server.Port != 3000 || cfg.Database.URL != "postgres://localhost/interviewready" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.AI.BaseURL != "http://ai-service:8000" {
		t.Fatalf("empty env var should be ignored, got %q", cfg.AI.BaseURL)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		path string
	}{
		{"negative timeout", "pipeline:\n  timeoutMs: -5\n", nil, "pipeline.timeoutMs"},
		{"unknown log format", "", map[string]string{"LOG_FORMAT": "xml"}, "logging.format"},
		{"zero text limit", "agents:\n  extractor:\n    maxTextLength: 0\n", nil, "agents.extractor.maxTextLength"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}
			_, err := load(path, env(tt.env))
			if !errors.Is(err, agent.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ae *agent.Error
			errors.As(err, &ae)
			found := false
			for _, v := range ae.Violations {
				if v.Path == tt.path {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected violation at %s, got %+v", tt.path, ae.Violations)
			}
		})
	}
}

func TestMalformedSources(t *testing.T) {
	if _, err := load("", env(map[string]string{"PORT": "eighty"})); !errors.Is(err, agent.ErrConfiguration) || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("expected PORT error, got %v", err)
	}
	if _, err := load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil)); !errors.Is(err, agent.ErrConfiguration) {
		t.Fatalf("expected missing file error, got %v", err)
	}
	if _, err := load(writeYAML(t, "pipeline: [1, 2"), env(nil)); !errors.Is(err, agent.ErrConfiguration) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := load(writeYAML(t, "pipeline: 5\n"), env(map[string]string{"PIPELINE_TIMEOUT": "10"})); !errors.Is(err, agent.ErrConfiguration) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Logging{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	Logging{Level: "debug", Format: "json"}.NewLogger(&buf).Debug("shown", "stage", 1)
	if !strings.Contains(buf.String(), `"msg":"shown"`) || !strings.Contains(buf.String(), `"stage":1`) {
		t.Fatalf("unexpected output %s", buf.String())
	}
}
