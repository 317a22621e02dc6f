// Package config loads application settings from built-in defaults, an
// optional YAML file and environment variables, in increasing precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/model"
)

//go:embed config.schema.json
var schemaJSON []byte

var shape = func() *model.Shape {
	s, err := model.NewShape("config", schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}()

type Config struct {
	App      App      `json:"app"`
	Pipeline Pipeline `json:"pipeline"`
	Agents   Agents   `json:"agents"`
	Logging  Logging  `json:"logging"`
	AI       AI       `json:"ai"`
	Database Database `json:"database"`
	Server   Server   `json:"server"`
	Renderer Renderer `json:"renderer"`
}

type App struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Debug       bool   `json:"debug"`
}

type Pipeline struct {
	TimeoutMs int64 `json:"timeoutMs"`
}

func (p Pipeline) Timeout() time.Duration { return millis(p.TimeoutMs) }

// Stage holds the settings shared by every agent.
type Stage struct {
	TimeoutMs int64 `json:"timeoutMs"`
}

func (s Stage) Timeout() time.Duration { return millis(s.TimeoutMs) }

type Extractor struct {
	Stage
	MaxTextLength int `json:"maxTextLength"`
}

type Agents struct {
	Extractor Extractor `json:"extractor"`
	Critic    Stage     `json:"critic"`
	Content   Stage     `json:"content"`
	Alignment Stage     `json:"alignment"`
	Coach     Stage     `json:"coach"`
}

type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type AI struct {
	BaseURL          string `json:"baseUrl"`
	Language         string `json:"language"`
	RequestTimeoutMs int64  `json:"requestTimeoutMs"`
	MaxAttempts      int    `json:"maxAttempts"`
}

func (a AI) RequestTimeout() time.Duration { return millis(a.RequestTimeoutMs) }

type Database struct {
	URL string `json:"url"`
}

type Server struct {
	Port int `json:"port"`
}

// Addr is the listen address for the HTTP server.
func (s Server) Addr() string { return ":" + strconv.Itoa(s.Port) }

type Renderer struct {
	ChromePath string `json:"chromePath"`
}

func millis(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// envVar maps an environment variable onto a config path.
type envVar struct {
	name string
	path []string
	kind string // string, int or bool
}

var envVars = []envVar{
	{"APP_NAME", []string{"app", "name"}, "string"},
	{"APP_VERSION", []string{"app", "version"}, "string"},
	{"APP_ENV", []string{"app", "environment"}, "string"},
	{"DEBUG", []string{"app", "debug"}, "bool"},
	{"PIPELINE_TIMEOUT", []string{"pipeline", "timeoutMs"}, "int"},
	{"LOG_LEVEL", []string{"logging", "level"}, "string"},
	{"LOG_FORMAT", []string{"logging", "format"}, "string"},
	{"AI_SERVICE_URL", []string{"ai", "baseUrl"}, "string"},
	{"AI_LANGUAGE", []string{"ai", "language"}, "string"},
	{"DATABASE_URL", []string{"database", "url"}, "string"},
	{"PORT", []string{"server", "port"}, "int"},
	{"CHROME_PATH", []string{"renderer", "chromePath"}, "string"},
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result. Every failure is a configuration error.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

// Default returns the built-in configuration with environment overrides.
func Default() (*Config, error) {
	return load("", os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]interface{}{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, configErr(fmt.Errorf("read %s: %w", path, err))
		}
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, configErr(fmt.Errorf("parse %s: %w", path, err))
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
	}

	for _, ev := range envVars {
		v, ok := lookup(ev.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		val, err := ev.parse(strings.TrimSpace(v))
		if err != nil {
			return nil, configErr(err)
		}
		if err := setPath(raw, ev.path, val); err != nil {
			return nil, configErr(err)
		}
	}

	out, err := model.Validate(shape, raw)
	if err != nil {
		return nil, configErr(err)
	}
	var cfg Config
	if err := model.Decode(out, &cfg); err != nil {
		return nil, configErr(err)
	}
	return &cfg, nil
}

func (ev envVar) parse(v string) (interface{}, error) {
	switch ev.kind {
	case "int":
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer, got %q", ev.name, v)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: expected a boolean, got %q", ev.name, v)
		}
		return b, nil
	default:
		return v, nil
	}
}

func setPath(m map[string]interface{}, path []string, v interface{}) error {
	for i, key := range path[:len(path)-1] {
		next, ok := m[key]
		if !ok || next == nil {
			child := map[string]interface{}{}
			m[key] = child
			m = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: expected a mapping, got %T", strings.Join(path[:i+1], "."), next)
		}
		m = child
	}
	m[path[len(path)-1]] = v
	return nil
}

func configErr(err error) error {
	e := &agent.Error{Kind: agent.KindConfiguration, Message: "invalid configuration: " + err.Error(), Err: err}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		e.Violations = verr.Violations
	}
	return e
}
