// Package validate handles the validate command, which checks the taxonomy
// and every rule set without reading any source file.
package validate

import (
	"fmt"

	"fjacquet/tally/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the validate command
var Cmd = NewCommand()

// NewCommand builds the validate command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check categories.yaml and every rule set",
		Long: `Load the category taxonomy and validate every rule set in the rule-set
directory against its format. Every failing rule set is reported. No source
file is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tax := c.GetTaxonomy()
			fmt.Fprintf(out, "Taxonomy: %d categories, %d keywords, %d ignored\n",
				len(tax.Categories()), tax.KeywordCount(), len(tax.Ignored()))

			valid, err := c.GetPipeline().Validate(cmd.Context(), c.Dirs().Parse)
			for _, rs := range valid {
				fmt.Fprintf(out, "ok\t%s (%s)\n", rs.Name(), rs.Type())
			}
			if err != nil {
				return fmt.Errorf("rule set validation failed:\n%w", err)
			}
			fmt.Fprintf(out, "%d rule set(s) valid\n", len(valid))
			return nil
		},
	}
}
