// Package report renders optimisation runs as printable HTML.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/comatrix-1/interviewready/internal/domain"
	"github.com/comatrix-1/interviewready/internal/model"
)

//go:embed report.html.tmpl
var reportTmpl string

var tpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":     func(i int) int { return i + 1 },
	"join":    func(s []string) string { return strings.Join(s, ", ") },
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
}).Parse(reportTmpl))

type view struct {
	Title string
	Run   *domain.OptimizationRun
	Doc   model.Document
}

// HTML renders run. Sections missing from the output are left out, so
// failed runs still render their stage trace.
func HTML(run *domain.OptimizationRun) (string, error) {
	if run == nil {
		return "", fmt.Errorf("report: nil run")
	}
	v := view{Title: "Resume optimisation report", Run: run}
	if run.Output != nil {
		if err := model.Decode(run.Output, &v.Doc); err != nil {
			return "", fmt.Errorf("report: decode output: %w", err)
		}
	}
	if v.Doc.Resume != nil && v.Doc.Resume.Contact != nil && v.Doc.Resume.Contact.Name != "" {
		v.Title = v.Doc.Resume.Contact.Name + " · " + v.Title
	}
	if v.Doc.JobDescription != nil {
		v.Title += " for " + v.Doc.JobDescription.Title
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return buf.String(), nil
}
