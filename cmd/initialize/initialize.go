// Package initialize handles the init command, which bootstraps the working
// directories.
package initialize

import (
	"fmt"

	"fjacquet/tally/cmd/root"
	"fjacquet/tally/internal/config"

	"github.com/spf13/cobra"
)

// Cmd represents the init command
var Cmd = NewCommand()

// NewCommand builds the init command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the cache and configuration directories",
		Long: `Create the cache, configuration and rule-set directories if they do not
exist yet and print where they are. Put categories.yaml and budget.yaml in the
configuration directory and one rule-set file per source in the rule-set
directory.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{root.SkipContainer: "true"},
		RunE:        run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := root.ConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}

	dirs, err := cfg.ResolveDirs()
	if err != nil {
		return err
	}
	if err := config.EnsureDirs(dirs); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "tally uses the following directories:")
	fmt.Fprintf(out, "\tcache directory: %s\n", dirs.Cache)
	fmt.Fprintf(out, "\tconfig directory: %s\n", dirs.Conf)
	fmt.Fprintf(out, "\trule-set directory: %s\n", dirs.Parse)
	fmt.Fprintln(out, "They have been created if they did not already exist.")
	return nil
}
