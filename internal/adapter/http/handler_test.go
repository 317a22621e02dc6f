package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/comatrix-1/interviewready/internal/adapter/repository"
	"github.com/comatrix-1/interviewready/internal/agent"
	"github.com/comatrix-1/interviewready/internal/domain"
	"github.com/comatrix-1/interviewready/internal/usecase"
)

type pdfRenderer struct{}

func (pdfRenderer) RenderHTMLToPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type testAPI struct {
	app  *fiber.App
	proc *usecase.Processor
	repo *repository.MemoryRepo
}

func newAPI(t *testing.T, fn func(context.Context, any) (any, error)) *testAPI {
	t.Helper()
	a, err := agent.NewFunc(agent.Descriptor{Name: "EchoAgent", Description: "echo", Version: "1.0.0"}, fn)
	if err != nil {
		t.Fatal(err)
	}
	p, err := usecase.NewPipeline(usecase.PipelineConfig{Agents: []agent.Agent{a}})
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewMemoryRepo()
	proc := usecase.NewProcessor(p, repo, pdfRenderer{}, nil)
	app := fiber.New()
	NewHandler(proc, repo, nil).Register(app)
	return &testAPI{app: app, proc: proc, repo: repo}
}

func echo(_ context.Context, in any) (any, error) {
	m, _ := in.(map[string]any)
	return map[string]any{"echo": m["text"]}, nil
}

func (api *testAPI) do(t *testing.T, method, path, body string) (int, map[string]interface{}, *nethttp.Response) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := api.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, resp
}

func runBody(user uuid.UUID) string {
	return `{"userId":"` + user.String() + `","input":{"text":"hello"}}`
}

func TestStartRunAndFetch(t *testing.T) {
	api := newAPI(t, echo)
	user := uuid.New()

	code, body, _ := api.do(t, nethttp.MethodPost, "/runs", runBody(user))
	if code != fiber.StatusAccepted || body["status"] != "pending" {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	api.proc.Wait()

	id := body["runId"].(string)
	code, body, _ = api.do(t, nethttp.MethodGet, "/runs/"+id, "")
	if code != fiber.StatusOK || body["status"] != "completed" {
		t.Fatalf("unexpected run %d %v", code, body)
	}
	if out := body["output"].(map[string]interface{}); out["echo"] != "hello" {
		t.Fatalf("unexpected output %v", out)
	}

	code, body, _ = api.do(t, nethttp.MethodGet, "/users/"+user.String()+"/runs", "")
	if code != fiber.StatusOK || len(body["runs"].([]interface{})) != 1 {
		t.Fatalf("unexpected list %d %v", code, body)
	}
}

func TestStartRunRejectsBadPayload(t *testing.T) {
	api := newAPI(t, echo)
	tests := []struct {
		name, body string
	}{
		{"not json", `{`},
		{"bad user", `{"userId":"nope","input":{}}`},
		{"missing input", `{"userId":"` + uuid.New().String() + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body, _ := api.do(t, nethttp.MethodPost, "/runs", tt.body)
			if code != fiber.StatusBadRequest || body["error"] == nil {
				t.Fatalf("expected 400, got %d %v", code, body)
			}
		})
	}
}

func TestRunSync(t *testing.T) {
	api := newAPI(t, echo)
	code, body, resp := api.do(t, nethttp.MethodPost, "/runs/sync", runBody(uuid.New()))
	if code != fiber.StatusOK || body["success"] != true {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Location"), "/runs/") {
		t.Fatalf("missing location header")
	}

	failing := newAPI(t, func(context.Context, any) (any, error) { return nil, errors.New("model offline") })
	code, body, _ = failing.do(t, nethttp.MethodPost, "/runs/sync", runBody(uuid.New()))
	if code != fiber.StatusUnprocessableEntity || body["success"] != false {
		t.Fatalf("expected 422, got %d %v", code, body)
	}
	e := body["error"].(map[string]interface{})
	if e["kind"] != "execution" || e["agent"] != "EchoAgent" {
		t.Fatalf("unexpected error %v", e)
	}
}

func TestLookupErrors(t *testing.T) {
	api := newAPI(t, echo)
	missing := uuid.New().String()

	if code, _, _ := api.do(t, nethttp.MethodGet, "/runs/not-a-uuid", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code, _, _ := api.do(t, nethttp.MethodGet, "/runs/"+missing, ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code, _, _ := api.do(t, nethttp.MethodDelete, "/runs/"+missing, ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code, _, _ := api.do(t, nethttp.MethodGet, "/runs/"+missing+"/report.pdf", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestCancelFinishedRun(t *testing.T) {
	api := newAPI(t, echo)
	run := domain.NewRun(uuid.New(), map[string]interface{}{})
	run.Status = domain.StatusCompleted
	if err := api.repo.Save(context.Background(), run); err != nil {
		t.Fatal(err)
	}
	code, body, _ := api.do(t, nethttp.MethodDelete, "/runs/"+run.ID.String(), "")
	if code != fiber.StatusConflict || body["status"] != "completed" {
		t.Fatalf("expected 409, got %d %v", code, body)
	}
}

func TestReports(t *testing.T) {
	api := newAPI(t, echo)
	pending := domain.NewRun(uuid.New(), map[string]interface{}{})
	if err := api.repo.Save(context.Background(), pending); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := api.do(t, nethttp.MethodGet, "/runs/"+pending.ID.String()+"/report.pdf", ""); code != fiber.StatusConflict {
		t.Fatalf("expected 409 for pending run, got %d", code)
	}

	done := domain.NewRun(uuid.New(), map[string]interface{}{"text": "hi"})
	if _, err := api.proc.Process(context.Background(), done); err != nil {
		t.Fatal(err)
	}
	code, _, resp := api.do(t, nethttp.MethodGet, "/runs/"+done.ID.String()+"/report.pdf", "")
	if code != fiber.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected pdf response %d %s", code, resp.Header.Get("Content-Type"))
	}
	code, _, resp = api.do(t, nethttp.MethodGet, "/runs/"+done.ID.String()+"/report.html", "")
	if code != fiber.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected html response %d %s", code, resp.Header.Get("Content-Type"))
	}
}

func TestPipelineInfo(t *testing.T) {
	api := newAPI(t, echo)
	code, body, _ := api.do(t, nethttp.MethodGet, "/pipeline", "")
	if code != fiber.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	info := body["pipeline"].(map[string]interface{})
	if info["agentCount"] != float64(1) || info["timeoutMs"] != float64(60000) || body["activeRuns"] != float64(0) {
		t.Fatalf("unexpected info %v", body)
	}
}
