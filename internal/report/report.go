// Package report turns analysis results into tabular reports and renders them
// as text, CSV or JSON.
package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/tally/internal/analysis"
	"fjacquet/tally/internal/budget"
	"fjacquet/tally/internal/fileutils"
	"fjacquet/tally/internal/models"
)

// Report file stems.
const (
	NamePercentages = "percent-expenditures"
	NameCashflow    = "net-cashflow"
	NameBudget      = "budget"
)

// Report is a titled table.
type Report struct {
	Name    string
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer writes a report in one output format.
type Renderer interface {
	Format() string
	Extension() string
	Render(w io.Writer, r Report) error
}

var renderers = map[string]Renderer{
	"text": TextRenderer{},
	"csv":  CSVRenderer{Delimiter: ','},
	"json": JSONRenderer{},
}

// ForFormat returns the renderer for name.
func ForFormat(name string) (Renderer, error) {
	r, ok := renderers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported report format: %s (known: %s)", name, strings.Join(Formats(), ", "))
	}
	return r, nil
}

// Formats lists the supported output formats.
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for name := range renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FileName returns the file name a report is saved under.
func FileName(r Report, renderer Renderer) string {
	return r.Name + renderer.Extension()
}

// Save renders r into dir and returns the written path.
func Save(dir string, r Report, renderer Renderer) (string, error) {
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, r); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", r.Name, err)
	}
	path := filepath.Join(dir, FileName(r, renderer))
	if err := fileutils.WriteFileAtomic(path, buf.Bytes(), models.PermissionReportFile); err != nil {
		return "", err
	}
	return path, nil
}

// Percentages builds the share-of-spending report.
func Percentages(shares []analysis.Share) Report {
	r := Report{
		Name:    NamePercentages,
		Title:   "Expenditures by category",
		Headers: []string{"Category", "Spent", "Percent"},
	}
	for _, s := range shares {
		r.Rows = append(r.Rows, []string{s.Category, s.Amount.StringFixed(2), s.Percent.StringFixed(2)})
	}
	return r
}

// Cashflow builds the net cashflow report.
func Cashflow(sums analysis.Sums) Report {
	r := Report{
		Name:    NameCashflow,
		Title:   "Net cashflow by category",
		Headers: []string{"Category", "Amount"},
	}
	for _, s := range sums {
		r.Rows = append(r.Rows, []string{s.Label, s.Amount.StringFixed(2)})
	}
	return r
}

// Budget builds the budget versus actual report.
func Budget(rows []budget.Comparison) Report {
	r := Report{
		Name:    NameBudget,
		Title:   "Budget versus actual",
		Headers: []string{"Category", "Actual", "Budget", "Difference"},
	}
	for _, c := range rows {
		r.Rows = append(r.Rows, []string{
			c.Label,
			c.Actual.StringFixed(2),
			c.Budget.StringFixed(2),
			c.Difference.StringFixed(2),
		})
	}
	return r
}
