//go:build ignore

// render_report renders a stored run as HTML, and as PDF with -pdf.
//
//	go run tools/render_report.go -run run.json -out report.html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/comatrix-1/interviewready/internal/domain"
	"github.com/comatrix-1/interviewready/internal/report"
	infra "github.com/comatrix-1/interviewready/pkg/infrastructure"
)

func main() {
	in := flag.String("run", "run.json", "optimization run as returned by GET /runs/:id")
	out := flag.String("out", "report.html", "output file")
	pdf := flag.Bool("pdf", false, "render a PDF with headless Chrome")
	flag.Parse()

	b, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read run: %v\n", err)
		os.Exit(2)
	}
	var run domain.OptimizationRun
	if err := json.Unmarshal(b, &run); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal: %v\n", err)
		os.Exit(2)
	}
	html, err := report.HTML(&run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(2)
	}
	data := []byte(html)
	if *pdf {
		data, err = infra.NewChromedpRenderer(os.Getenv("CHROME_PATH")).RenderHTMLToPDF(context.Background(), html)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pdf: %v\n", err)
			os.Exit(2)
		}
		if !strings.HasSuffix(*out, ".pdf") {
			*out += ".pdf"
		}
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(2)
	}
	fmt.Println("wrote", *out)
}
