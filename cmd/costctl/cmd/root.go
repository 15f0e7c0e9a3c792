// Package cmd provides the costctl commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are shared by every subcommand
type options struct {
	output   string
	currency string
	logLevel string
	logger   *zap.Logger
}

// NewRootCommand builds the costctl command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "costctl",
		Short: "Process costing calculations from the command line",
		Long: `costctl evaluates process costing figures for manufacturing orders.

Examples:
  costctl calculate --order MO-2026-0001
  costctl wip --started 1000 --completed 800 --percent 50 --cost 9000
  costctl breakdown --material 1000 --labor 500 --overhead 300 --quantity 100 -o json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case outputText, outputJSON:
			default:
				return fmt.Errorf("unsupported output %q, want %s or %s", opts.output, outputText, outputJSON)
			}
			log, err := logger.New(&logger.Config{
				Level:       opts.logLevel,
				Format:      "console",
				Output:      "stderr",
				TimeFormat:  "15:04:05",
				ServiceName: "costctl",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = logger.Sync(opts.logger)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format (text, json)")
	flags.StringVar(&opts.currency, "currency", "", "ISO currency code (default from configuration, else SAR)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCalculateCommand(opts),
		newWIPCommand(opts),
		newBreakdownCommand(opts),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
