package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
)

// TextRenderer prints an aligned table under the report title.
type TextRenderer struct{}

func (TextRenderer) Format() string    { return "text" }
func (TextRenderer) Extension() string { return ".txt" }

func (TextRenderer) Render(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", r.Title, strings.Repeat("=", len(r.Title))); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(r.Headers, "\t")); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// CSVRenderer writes the header row followed by the data rows.
type CSVRenderer struct {
	Delimiter rune
}

func (CSVRenderer) Format() string    { return "csv" }
func (CSVRenderer) Extension() string { return ".csv" }

func (c CSVRenderer) Render(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	if c.Delimiter != 0 {
		writer.Comma = c.Delimiter
	}
	safe := gocsv.NewSafeCSVWriter(writer)
	if err := safe.Write(r.Headers); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := safe.Write(row); err != nil {
			return err
		}
	}
	safe.Flush()
	return safe.Error()
}

// JSONRenderer writes the report as an indented JSON document whose rows are
// objects keyed by header.
type JSONRenderer struct{}

func (JSONRenderer) Format() string    { return "json" }
func (JSONRenderer) Extension() string { return ".json" }

type jsonReport struct {
	Title string              `json:"title"`
	Rows  []map[string]string `json:"rows"`
}

func (JSONRenderer) Render(w io.Writer, r Report) error {
	doc := jsonReport{Title: r.Title, Rows: make([]map[string]string, 0, len(r.Rows))}
	for _, row := range r.Rows {
		obj := make(map[string]string, len(r.Headers))
		for i, h := range r.Headers {
			if i < len(row) {
				obj[h] = row[i]
			}
		}
		doc.Rows = append(doc.Rows, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}
