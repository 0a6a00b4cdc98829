package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/funccov/internal/config"
	"github.com/zjy-dev/funccov/internal/coverage"
	"github.com/zjy-dev/funccov/internal/logger"
	"github.com/zjy-dev/funccov/internal/scanner"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configName string
	logLevel   string
	noColor    bool

	cfg *config.Config
}

// NewRootCommand creates the root command for the funccov tool.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "funccov",
		Short: "Function coverage from Pin function-trace logs.",
		Long: `funccov reads the logs written by the Pin function tracer and reports,
per traced image, which defined functions were called during execution.

Configuration is read from configs/<name>.yaml (top-level "config" key) and
FUNCCOV_CONFIG_* environment variables; command line flags take precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configName)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.cfg = cfg

			level := cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				level = opts.logLevel
			}
			logger.Init(level)
			logger.SetLevel(level)
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetColorEnable(!opts.noColor)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configName, "config", config.DefaultConfigName, "Config file base name, looked up in ./configs")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored log output")

	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// scanLogs runs the scanner over paths and returns the merged coverage.
// Per-file failures have already been logged by the scanner.
func scanLogs(paths []string) (*coverage.Aggregator, []scanner.FileError) {
	agg := coverage.NewAggregator()
	s := scanner.New()
	failures := s.Scan(paths, agg)

	stats := s.Stats()
	logger.Debug("Read %d file(s), %d line(s): %d defined and %d called facts across %d image(s)",
		stats.Files, stats.Lines, stats.Defined, stats.Called, agg.Len())
	return agg, failures
}
