package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [roots...]",
		Short: "Serve the resolved order over HTTP",
		Long: `Start an HTTP server that resolves the configured roots on request.

Endpoints:
  GET  /healthz        liveness probe
  GET  /version        build information
  GET  /order          resolved order (?only=, ?exclude=, ?refresh=true)
  GET  /declarations   merged declarations
  GET  /validate       validation report
  POST /invalidate     drop the cached order`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.pipelineOptions(args)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.cfg.Serve.Addr
			}
			logger := loggerFromContext(ctx)
			logger.Info("serving order", "roots", opts.Roots, "convention", opts.Convention)
			return server.New(runner, opts, logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: serve.addr, :8080)")

	return cmd
}
