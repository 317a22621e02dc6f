// Package aitest fakes the ai-service chat endpoint for tests and local runs.
package aitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/comatrix-1/interviewready/pkg/ai"
)

// Responder answers one chat call. A status other than 200 is written as
// is with an empty body.
type Responder func(agent, input string) (status int, output string)

// Call records a request received by the fake.
type Call struct {
	Agent string
	Input string
	Task  string
}

// Handler serves POST /v1/chat using r. record, if non-nil, sees every
// well-formed call.
func Handler(r Responder, record func(Call)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(req.Body)
		var in struct {
			Agent string `json:"agent"`
			Input string `json:"input"`
		}
		if err := json.Unmarshal(body, &in); err != nil || in.Input == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if record != nil {
			record(Call{Agent: in.Agent, Input: in.Input, Task: Task(in.Input)})
		}
		status, output := r(in.Agent, in.Input)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		b, _ := json.Marshal(map[string]string{"agent": "mock", "output": output})
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})
	return mux
}

// Server is an httptest server running Handler.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
}

func NewServer(r Responder) *Server {
	s := &Server{}
	s.Server = httptest.NewServer(Handler(r, s.record))
	return s
}

func (s *Server) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

// Calls returns a copy of the calls received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Task returns the task named on the first line of a prompt, or "".
func Task(input string) string {
	line := input
	if i := strings.IndexByte(input, '\n'); i >= 0 {
		line = input[:i]
	}
	if !strings.HasPrefix(line, ai.TaskPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, ai.TaskPrefix))
}

// Canned answers every known task with its fixture, wrapped in a code
// fence the way models often reply. Unknown tasks get a 400.
func Canned() Responder {
	return func(_, input string) (int, string) {
		fx, ok := Fixtures[Task(input)]
		if !ok {
			return http.StatusBadRequest, ""
		}
		b, _ := json.Marshal(fx)
		return http.StatusOK, "```json\n" + string(b) + "\n```"
	}
}

// Fixtures holds a schema-valid answer per task.
var Fixtures = map[string]interface{}{
	"extract_resume": map[string]interface{}{
		"summary": "Backend engineer with six years building Go services and data pipelines.",
		"contact": map[string]interface{}{
			"name":  "Test User",
			"email": "t@example.com",
			"links": []interface{}{
				map[string]interface{}{"url": "https://github.com/test-user"},
				map[string]interface{}{"url": "https://www.linkedin.com/in/test-user"},
			},
		},
		"experience": []interface{}{
			map[string]interface{}{
				"company":    "Acme",
				"role":       "Backend Engineer",
				"start_date": "2021-03",
				"end_date":   "present",
				"bullets": []interface{}{
					"Cut p99 latency of the order API by 40% by reworking connection pooling.",
					"Led migration of batch jobs to an event-driven pipeline.",
				},
			},
		},
		"skills":         []interface{}{"Go", "PostgreSQL", "Kubernetes"},
		"education":      []interface{}{"BSc Computer Science"},
		"certifications": []interface{}{"Certified Kubernetes Administrator"},
	},
	"extract_job_description": map[string]interface{}{
		"title":            "Senior Backend Engineer",
		"required_skills":  []interface{}{"Go", "PostgreSQL"},
		"preferred_skills": []interface{}{"Kafka"},
		"seniority":        "senior",
		"responsibilities": []interface{}{"Build Go microservices", "Improve throughput"},
		"keywords":         []interface{}{"Go", "microservices", "Kafka", "PostgreSQL"},
	},
	"structural_assessment": map[string]interface{}{
		"score":                     78,
		"readability":               "Clear sections; bullets lead with impact.",
		"formattingRecommendations": []interface{}{"Move skills above education."},
		"suggestions":               []interface{}{"Quantify the pipeline migration."},
	},
	"content_analysis": map[string]interface{}{
		"strengths":             []interface{}{"Measurable latency improvement"},
		"gaps":                  []interface{}{"No messaging system experience listed"},
		"skillImprovements":     []interface{}{"Mention Kafka exposure if any"},
		"quantifiedImpactScore": 0.6,
		"hallucinationRisk":     0.1,
		"confidence":            0.8,
	},
	"alignment": map[string]interface{}{
		"overallScore":     72,
		"matchingKeywords": []interface{}{"Go", "PostgreSQL", "microservices"},
		"missingKeywords":  []interface{}{"Kafka"},
		"roleFitAnalysis":  "Strong Go background; streaming experience is the main gap.",
	},
	"interview_prep": map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{
				"question":  "How would you introduce Kafka into an existing batch pipeline?",
				"rationale": "Kafka is a missing keyword.",
			},
		},
		"focusAreas": []interface{}{"Event streaming"},
	},
}
