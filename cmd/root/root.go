// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/tally/internal/config"
	"fjacquet/tally/internal/container"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigDir string
	Home      string
	LogLevel  string
	LogFormat string
}

type (
	containerKey struct{}
	configKey    struct{}
)

// SkipContainer is the annotation that keeps the root command from wiring
// the container, for commands that must run before categories.yaml exists
// or while it is broken.
const SkipContainer = "tally/skip-container"

// Cmd is the root command
var Cmd = NewCommand()

// NewCommand builds the root command with its persistent flags. Subcommands
// obtain the wired container through FromContext.
func NewCommand() *cobra.Command {
	flags := &GlobalFlags{}
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Ingest bank exports, categorize transactions and report on spending.",
		Long: `tally reads plaintext transaction exports described by your rule sets,
categorizes them against your keyword taxonomy and reports on where the money
went: percent expenditures, net cashflow per category and budget versus actual.

Run "tally init" first to create the configuration directories.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)

			if _, skip := cmd.Annotations[SkipContainer]; !skip {
				c, err := container.NewContainer(cfg)
				if err != nil {
					return err
				}
				ctx = context.WithValue(ctx, containerKey{}, c)
			}
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			c, err := FromContext(cmd.Context())
			if err != nil {
				return nil
			}
			return c.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigDir, "config", "", "Directory containing config.yaml")
	cmd.PersistentFlags().StringVar(&flags.Home, "home", "", "Root directory for cache and configuration (overrides home)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format (text or json)")
	return cmd
}

// loadConfig loads .env and the configuration and applies flag overrides.
func loadConfig(flags *GlobalFlags) (*config.Config, error) {
	if _, err := config.LoadEnv(); err != nil {
		return nil, err
	}

	var searchPaths []string
	if flags.ConfigDir != "" {
		searchPaths = []string{flags.ConfigDir}
	}
	cfg, err := config.InitializeConfig(searchPaths...)
	if err != nil {
		return nil, err
	}

	if flags.LogLevel != "" {
		if _, err := logrus.ParseLevel(strings.ToLower(flags.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", flags.LogLevel)
		}
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		if flags.LogFormat != "text" && flags.LogFormat != "json" {
			return nil, fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", flags.LogFormat)
		}
		cfg.Log.Format = flags.LogFormat
	}
	if flags.Home != "" {
		cfg.Home = flags.Home
	}

	return cfg, nil
}

// FromContext returns the container set up by the root command.
func FromContext(ctx context.Context) (*container.Container, error) {
	if ctx != nil {
		if c, ok := ctx.Value(containerKey{}).(*container.Container); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("application container not initialized")
}

// ConfigFromContext returns the configuration loaded by the root command. It
// is set for every subcommand, including those annotated with SkipContainer.
func ConfigFromContext(ctx context.Context) (*config.Config, error) {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("configuration not loaded")
}
