// Package report handles the report command, which summarizes the canonical
// table.
package report

import (
	"fmt"
	"io"
	"time"

	"fjacquet/tally/cmd/root"
	"fjacquet/tally/internal/analysis"
	"fjacquet/tally/internal/budget"
	"fjacquet/tally/internal/dateutils"
	"fjacquet/tally/internal/logging"
	reports "fjacquet/tally/internal/report"
	"fjacquet/tally/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Options are the report command flags.
type Options struct {
	Reload      bool
	Days        int
	Between     []string
	Percentages bool
	Cashflow    bool
	Budget      bool
	Consolidate float64
	SaveDir     string
	Format      string
	Hide        bool
}

// Cmd represents the report command
var Cmd = NewCommand()

// NewCommand builds the report command.
func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize spending, cashflow and budget",
		Long: `Load the canonical table from the cache (or from the source files with
--reload or when nothing is cached), optionally restrict it to a date range and
print the requested reports.`,
		Example: `  tally report --percentages --days 30
  tally report --cashflow --budget --between 2023-01-01,2023-03-31
  tally report --cashflow --consolidate 5 --save ./out --format csv --hide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.Reload, "reload", "r", false, "Read the source files instead of the cache")
	f.IntVarP(&opts.Days, "days", "d", -1, "Only use the last N days")
	f.StringSliceVarP(&opts.Between, "between", "b", nil, "Only use dates between FROM,TO (yyyy-mm-dd, inclusive)")
	f.BoolVarP(&opts.Percentages, "percentages", "p", false, "Report percent expenditures")
	f.BoolVarP(&opts.Cashflow, "cashflow", "f", false, "Report net cashflow")
	f.BoolVarP(&opts.Budget, "budget", "u", false, "Compare net cashflow to budget")
	f.Float64VarP(&opts.Consolidate, "consolidate", "c", 0, "Fold categories under this percentage into Other")
	f.StringVarP(&opts.SaveDir, "save", "s", "", "Save the reports in this directory")
	f.StringVar(&opts.Format, "format", "text", "Output format: "+fmt.Sprint(reports.Formats()))
	f.BoolVar(&opts.Hide, "hide", false, "Do not print the reports")
	return cmd
}

// Check validates the option combination before any data is loaded.
func (o *Options) Check() error {
	if err := validation.IsPercentage("consolidation", o.Consolidate); err != nil {
		return err
	}
	if o.SaveDir != "" {
		if err := validation.IsValidDirectory(o.SaveDir); err != nil {
			return err
		}
	}
	if len(o.Between) != 0 && len(o.Between) != 2 {
		return fmt.Errorf("--between needs exactly two dates, got %d", len(o.Between))
	}
	if _, err := reports.ForFormat(o.Format); err != nil {
		return err
	}
	return nil
}

// Range returns the date range to keep, relative to now. ok is false when
// every date is kept. --between wins over --days.
func (o *Options) Range(now time.Time) (from, to time.Time, ok bool, err error) {
	if len(o.Between) == 2 {
		if from, err = dateutils.ParseISODate(o.Between[0]); err != nil {
			return from, to, false, fmt.Errorf("invalid --between start: %w", err)
		}
		if to, err = dateutils.ParseISODate(o.Between[1]); err != nil {
			return from, to, false, fmt.Errorf("invalid --between end: %w", err)
		}
		return from, to, true, nil
	}
	if o.Days > -1 {
		from, to = analysis.LastNDays(now, o.Days)
		return from, to, true, nil
	}
	return from, to, false, nil
}

func run(cmd *cobra.Command, opts *Options) error {
	if err := opts.Check(); err != nil {
		return err
	}
	renderer, err := reports.ForFormat(opts.Format)
	if err != nil {
		return err
	}

	c, err := root.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger := c.GetLogger()

	table, err := c.Table(cmd.Context(), opts.Reload)
	if err != nil {
		return err
	}
	txs := table.Transactions

	from, to, filtered, err := opts.Range(time.Now())
	if err != nil {
		return err
	}
	if filtered {
		txs = analysis.FilterBetween(txs, from, to)
		logger.Info("Filtered transactions by date",
			logging.F("from", dateutils.ToISODate(from)),
			logging.F("to", dateutils.ToISODate(to)),
			logging.F(logging.FieldCount, len(txs)))
	}

	minPercent := decimal.NewFromFloat(opts.Consolidate)
	labels := budget.Labels(c.GetTaxonomy())

	var out []reports.Report
	if opts.Percentages {
		out = append(out, reports.Percentages(analysis.Percentages(txs, minPercent)))
	}
	if opts.Cashflow {
		sums := analysis.Consolidate(analysis.CategorySums(txs, labels), minPercent)
		out = append(out, reports.Cashflow(sums))
	}
	if opts.Budget {
		planned, err := c.Budget()
		if err != nil {
			return err
		}
		rows, err := budget.Compare(analysis.CategorySums(txs, labels), planned)
		if err != nil {
			// only this comparison is lost
			logger.WithError(err).Error("Budget comparison skipped")
		} else {
			out = append(out, reports.Budget(rows))
		}
	}

	if len(out) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d transactions. Choose a report with --percentages, --cashflow or --budget.\n", len(txs))
		return nil
	}
	return emit(cmd.OutOrStdout(), out, renderer, opts, logger)
}

// emit prints and saves each report.
func emit(w io.Writer, out []reports.Report, renderer reports.Renderer, opts *Options, logger logging.Logger) error {
	for i, r := range out {
		if !opts.Hide {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := renderer.Render(w, r); err != nil {
				return err
			}
		}
		if opts.SaveDir != "" {
			path, err := reports.Save(opts.SaveDir, r, renderer)
			if err != nil {
				return err
			}
			logger.Info("Saved report", logging.F(logging.FieldFile, path), logging.F(logging.FieldFormat, renderer.Format()))
		}
	}
	return nil
}
