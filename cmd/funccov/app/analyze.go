package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/funccov/internal/logger"
	"github.com/zjy-dev/funccov/internal/report"
)

// NewAnalyzeCommand creates the "analyze" subcommand.
func NewAnalyzeCommand(opts *globalOptions) *cobra.Command {
	var out outputs

	cmd := &cobra.Command{
		Use:   "analyze <log-file>...",
		Short: "Report function coverage for one or more trace logs.",
		Long: `Analyze merges every "[Image:<img>] [Function:<fn>]" and
"[Image:<img>] [Called:<fn>]" line found in the given logs and prints, per
image, how many defined functions were called.

Missing or unreadable log files are reported and skipped. Report files are
named coverage_<image>.<ext>, where <image> is the image base name with every
character outside [A-Za-z0-9._-] replaced by '_'.

Examples:
  # Console report only
  funccov analyze pin_run1.log pin_run2.log

  # Also write HTML, XUnit and Markdown reports
  funccov analyze *.log --html-output reports/html --xunit-output reports/xunit --markdown-output reports/md

  # Export all summaries for scripting
  funccov analyze run.log --summary-output coverage.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use config values as defaults, command line flags override
			cfg := opts.cfg
			if !cmd.Flags().Changed("html-output") {
				out.html = cfg.HTMLOutput
			}
			if !cmd.Flags().Changed("xunit-output") {
				out.xunit = cfg.XUnitOutput
			}
			if !cmd.Flags().Changed("markdown-output") {
				out.markdown = cfg.MarkdownOutput
			}
			if !cmd.Flags().Changed("summary-output") {
				out.summary = cfg.SummaryOutput
			}

			return runAnalyze(cmd, args, out)
		},
	}

	cmd.Flags().StringVar(&out.html, "html-output", "", "Directory to save per-image HTML coverage reports")
	cmd.Flags().StringVar(&out.xunit, "xunit-output", "", "Directory to save per-image XUnit XML coverage reports")
	cmd.Flags().StringVar(&out.markdown, "markdown-output", "", "Directory to save per-image Markdown coverage reports")
	cmd.Flags().StringVar(&out.summary, "summary-output", "", "File to save all summaries to (.yaml/.yml for YAML, otherwise JSON)")

	return cmd
}

// outputs holds the optional report destinations; empty means disabled.
type outputs struct {
	html     string
	xunit    string
	markdown string
	summary  string
}

// reporters returns the enabled per-image file reporters.
func (o outputs) reporters() []report.FileReporter {
	var rs []report.FileReporter
	if o.html != "" {
		rs = append(rs, report.NewHTMLReporter(o.html))
	}
	if o.xunit != "" {
		rs = append(rs, report.NewXUnitReporter(o.xunit))
	}
	if o.markdown != "" {
		rs = append(rs, report.NewMarkdownReporter(o.markdown))
	}
	return rs
}

// runAnalyze never fails on per-file or per-image problems; only a console
// write error is returned.
func runAnalyze(cmd *cobra.Command, paths []string, out outputs) error {
	agg, _ := scanLogs(paths)
	summaries := agg.Summaries()

	if err := report.NewConsoleReporter(cmd.OutOrStdout()).Print(summaries); err != nil {
		return fmt.Errorf("failed to print console report: %w", err)
	}

	// Directory and per-image failures are logged by Generate.
	for _, r := range out.reporters() {
		_, _ = report.Generate(r, summaries)
	}

	if out.summary != "" {
		if err := report.WriteSummary(out.summary, summaries); err != nil {
			logger.Error("Could not save summary to %s: %v", out.summary, err)
		} else {
			logger.Info("--> Summary saved to %s", out.summary)
		}
	}

	return nil
}
