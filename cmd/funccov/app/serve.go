package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/funccov/internal/httpserver"
	"github.com/zjy-dev/funccov/internal/logger"
)

// NewServeCommand creates the "serve" subcommand.
func NewServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <log-file>...",
		Short: "Browse function coverage over HTTP.",
		Long: `Serve analyzes the given logs once and exposes the result until interrupted:

  GET /                      index of all images
  GET /report/<image>        HTML coverage page
  GET /api/images            JSON list of image summaries
  GET /api/images/<image>    JSON summary with function lists
  GET /api/health            liveness

<image> is the path-escaped image name, e.g. %2Fusr%2Flib%2Flibc.so.6.

Examples:
  funccov serve pin_run1.log pin_run2.log --addr 127.0.0.1:9000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = opts.cfg.Serve.Addr
			}

			agg, _ := scanLogs(args)

			srv := httpserver.NewServer(addr, agg)
			if err := srv.Start(); err != nil {
				return fmt.Errorf("failed to start HTTP server: %w", err)
			}
			logger.Info("Serving coverage for %d image(s) at http://%s", agg.Len(), srv.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("Shutting down HTTP server...")
			return srv.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")

	return cmd
}
