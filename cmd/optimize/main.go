// Command optimize runs the standard pipeline once over a resume and a job
// description and prints the stage trace.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comatrix-1/interviewready/internal/agents"
	"github.com/comatrix-1/interviewready/internal/config"
	"github.com/comatrix-1/interviewready/internal/model"
	"github.com/comatrix-1/interviewready/internal/usecase"
	"github.com/comatrix-1/interviewready/pkg/ai"
	"github.com/comatrix-1/interviewready/pkg/ai/aitest"
	"github.com/comatrix-1/interviewready/pkg/document"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#999999")).Padding(0, 1)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	resumePath := fs.String("resume", "", "resume file (.txt, .md, .html)")
	jobPath := fs.String("job", "", "job description file (.txt, .md, .html)")
	asJSON := fs.Bool("json", false, "print the pipeline result as JSON")
	mock := fs.Bool("mock", false, "answer model calls with built-in fixtures")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *resumePath == "" || *jobPath == "" {
		fmt.Fprintln(stderr, "optimize: -resume and -job are required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "optimize: %v\n", err)
		return 2
	}
	logger := cfg.Logging.NewLogger(stderr)

	if *mock {
		srv := aitest.NewServer(aitest.Canned())
		defer srv.Close()
		cfg.AI.BaseURL = srv.URL
	}

	input, err := readInput(*resumePath, *jobPath)
	if err != nil {
		fmt.Fprintf(stderr, "optimize: %v\n", err)
		return 2
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
		fmt.Fprintf(stderr, "optimize: %v\n", err)
		return 2
	}
	pipeline, err := usecase.NewPipeline(usecase.PipelineConfig{Agents: stages, Timeout: cfg.Pipeline.Timeout()}, usecase.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "optimize: %v\n", err)
		return 2
	}

	res := pipeline.Run(ctx, input)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "optimize: %v\n", err)
			return 2
		}
	} else {
		printResult(stdout, pipeline.Info(), res)
	}
	if !res.Success {
		return 1
	}
	return 0
}

// readInput builds text input for plain-text files and file input for
// anything the extractor has to parse.
func readInput(resumePath, jobPath string) (interface{}, error) {
	resume, err := os.ReadFile(resumePath)
	if err != nil {
		return nil, err
	}
	job, err := os.ReadFile(jobPath)
	if err != nil {
		return nil, err
	}
	if plain(resumePath) && plain(jobPath) {
		return agents.NewTextInput(string(resume), string(job)), nil
	}
	return agents.NewFileInput(filepath.Base(resumePath), resume, filepath.Base(jobPath), job), nil
}

func plain(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".txt":
		return true
	}
	return false
}

func printResult(w io.Writer, info usecase.Info, res usecase.PipelineResult) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("InterviewReady pipeline (%d agents)", info.AgentCount)))
	for i, s := range res.Stages {
		mark := okStyle.Render("✓")
		if !s.Success {
			mark = failStyle.Render("✗")
		}
		fmt.Fprintf(w, "%s %d. %-22s %s\n", mark, i+1, s.AgentName, detailStyle.Render(fmt.Sprintf("%dms", s.DurationMs)))
		if s.Error != nil {
			fmt.Fprintln(w, "   "+failStyle.Render(string(s.Error.Kind))+" "+s.Error.Message)
			for _, v := range s.Error.Violations {
				fmt.Fprintln(w, "   "+detailStyle.Render(v.Path+": "+v.Message))
			}
		}
	}
	for i := len(res.Stages); i < info.AgentCount; i++ {
		fmt.Fprintf(w, "%s %d. %-22s\n", detailStyle.Render("-"), i+1, info.Agents[i].Name)
	}
	if !res.Success {
		fmt.Fprintln(w, failStyle.Render("pipeline failed")+detailStyle.Render(fmt.Sprintf(" after %dms", res.TotalDurationMs)))
		return
	}

	var doc model.Document
	if err := model.Decode(res.Data, &doc); err != nil {
		fmt.Fprintln(w, failStyle.Render("unreadable result: "+err.Error()))
		return
	}
	var lines []string
	if a := doc.Alignment; a != nil {
		lines = append(lines, fmt.Sprintf("Alignment score: %.0f / 100", a.OverallScore))
		if len(a.MissingKeywords) > 0 {
			lines = append(lines, "Missing keywords: "+strings.Join(a.MissingKeywords, ", "))
		}
	}
	if s := doc.StructuralAssessment; s != nil {
		lines = append(lines, fmt.Sprintf("Structure score: %.0f / 100", s.Score))
	}
	if g := doc.Governance; g != nil {
		line := "Governance: " + g.Status
		if len(g.Flags) > 0 {
			line += " (" + strings.Join(g.Flags, ", ") + ")"
		}
		lines = append(lines, line)
	}
	if p := doc.InterviewPrep; p != nil {
		lines = append(lines, fmt.Sprintf("Interview questions: %d", len(p.Questions)))
	}
	lines = append(lines, fmt.Sprintf("Total: %dms", res.TotalDurationMs))
	fmt.Fprintln(w, summaryStyle.Render(strings.Join(lines, "\n")))
}
