// Package ingest handles the ingest command, which rebuilds the canonical
// table from the source files.
package ingest

import (
	"fmt"

	"fjacquet/tally/cmd/root"
	"fjacquet/tally/internal/common"
	"fjacquet/tally/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the ingest command
var Cmd = NewCommand()

// NewCommand builds the ingest command.
func NewCommand() *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Read every source file and refresh the cache",
		Long: `Run every rule set in the rule-set directory, merge and categorize the
records and store the resulting table in the cache. With --export the table is
also written as CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := c.GetLogger()

			result, err := c.Ingest(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range result.Skipped {
				logger.WithError(s.Err).Warn("Rule set skipped", logging.F(logging.FieldRuleSet, s.Path))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d transactions (%d matched by keyword, %d dropped).\n",
				result.Table.Len(), result.Stats.Matched, result.Stats.Dropped)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, "Skipped %d rule set(s).\n", len(result.Skipped))
			}

			if exportPath != "" {
				if err := common.WriteTransactionsToCSV(result.Table.Transactions, exportPath, c.Delimiter(), logger); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported to %s\n", exportPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&exportPath, "export", "e", "", "Also write the table as CSV to this file")
	return cmd
}
