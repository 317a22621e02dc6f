package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Request is one completion call. Task, Instructions and Context are
// rendered into the chat input; Schema, when set, is appended so the model
// sees the exact JSON shape expected back.
type Request struct {
	Agent        string
	Task         string
	Instructions string
	Context      interface{}
	Schema       map[string]interface{}
	Language     string
}

// Completer is the generative-model collaborator used by the agents.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientConfig configures a Client. Zero values select the defaults.
type ClientConfig struct {
	BaseURL        string
	Language       string
	RequestTimeout time.Duration
	MaxAttempts    int
	// Backoff is the base delay between attempts; attempt i waits Backoff<<i.
	Backoff time.Duration
	Logger  *slog.Logger
}

const DefaultBaseURL = "http://ai-service:8000"

// TaskPrefix starts the first line of every prompt that names its task.
const TaskPrefix = "TASK: "

// Client calls the ai-service chat endpoint.
type Client struct {
	BaseURL         string
	HTTP            *http.Client
	DefaultLanguage string
	maxAttempts     int
	backoff         time.Duration
	log             *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		BaseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		HTTP:            &http.Client{Timeout: cfg.RequestTimeout},
		DefaultLanguage: cfg.Language,
		maxAttempts:     cfg.MaxAttempts,
		backoff:         cfg.Backoff,
		log:             cfg.Logger,
	}
}

// StatusError reports a non-200 answer from the ai-service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai-service returned non-200 status: %d", e.StatusCode)
}

type chatRequest struct {
	Agent string `json:"agent"`
	Input string `json:"input"`
}

type chatResponse struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

// Complete sends req to POST {BaseURL}/v1/chat and returns the raw model
// output.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	input, err := c.prompt(req)
	if err != nil {
		return "", err
	}
	agentName := req.Agent
	if agentName == "" {
		agentName = "auto"
	}
	b, err := json.Marshal(chatRequest{Agent: agentName, Input: input})
	if err != nil {
		return "", err
	}

	c.log.Debug("ai.client: POST /v1/chat", "base_url", c.BaseURL, "agent", agentName, "bytes", len(b))

	resp, err := c.doPostWithRetry(ctx, "/v1/chat", b)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	c.log.Debug("ai.client: response", "status", resp.StatusCode, "bytes", len(respBytes))

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", fmt.Errorf("ai-service returned malformed response: %w", err)
	}
	return chatResp.Output, nil
}

func (c *Client) prompt(req Request) (string, error) {
	var sb strings.Builder
	if req.Task != "" {
		sb.WriteString(TaskPrefix + req.Task + "\n")
	}
	sb.WriteString("You will produce EXACTLY one JSON object and NOTHING ELSE. Do not include any extra text, explanations, or Markdown.\n\n")
	sb.WriteString(req.Instructions)
	lang := req.Language
	if lang == "" {
		lang = c.DefaultLanguage
	}
	if lang != "" {
		sb.WriteString("\n\nWrite all prose in " + lang + ".")
	}
	if req.Schema != nil {
		schemaBytes, err := json.Marshal(req.Schema)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\nJSON-SCHEMA:\n")
		sb.Write(schemaBytes)
	}
	if req.Context != nil {
		ctxBytes, err := json.Marshal(req.Context)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\nContext:\n")
		sb.Write(ctxBytes)
	}
	return sb.String(), nil
}

// doPostWithRetry performs an HTTP POST to the given path with retry/backoff.
// Transport errors and 5xx answers are retried; anything else is returned
// to the caller.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		switch {
		case err == nil && resp.StatusCode < 500:
			return resp, nil
		case err == nil:
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		}
		c.log.Warn("ai.client: attempt failed", "attempt", i+1, "of", c.maxAttempts, "error", lastErr)

		// exponential backoff before retrying
		if i < c.maxAttempts-1 {
			select {
			case <-time.After(c.backoff << i):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// ErrNoJSON is returned when a model answer holds no JSON object.
var ErrNoJSON = errors.New("ai-service returned non-json content")

// ExtractJSON decodes the JSON object in s into out. When s is not valid
// JSON as a whole, the substring from the first '{' to the last '}' is
// tried, which strips code fences and chatter around the object.
func ExtractJSON(s string, out interface{}) error {
	err := json.Unmarshal([]byte(s), out)
	if err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(s[start:end+1]), out); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrNoJSON, err)
}

// CompleteJSON runs req through c and decodes the answer into out.
func CompleteJSON(ctx context.Context, c Completer, req Request, out interface{}) error {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	return ExtractJSON(text, out)
}
