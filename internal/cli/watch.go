package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/pipeline"
	"github.com/matzehuels/runorder/pkg/watch"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [roots...]",
		Short: "Re-resolve the order whenever a declaration file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.pipelineOptions(args)
			if err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			conv, err := opts.DiscoveryConvention()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			w, err := watch.New(watch.Config{
				Roots:      opts.Roots,
				Convention: conv,
				Debounce:   debounce,
				Logger:     loggerFromContext(ctx),
			})
			if err != nil {
				return err
			}
			changes, err := w.Start()
			if err != nil {
				return err
			}
			defer w.Stop()

			c.watchOnce(ctx, runner, opts, "startup")
			printInfo("Watching %d roots for changes (Ctrl+C to stop)", len(opts.Roots))
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
					printNewline()
					printInfo("Declarations changed")
					c.watchOnce(ctx, runner, opts, "change")
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-resolving")

	return cmd
}

// watchOnce resolves and prints the order. Errors are printed rather than
// returned so a broken edit does not end the watch.
func (c *CLI) watchOnce(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, trigger string) {
	prog := newProgress(loggerFromContext(ctx), trigger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		prog.failed(err)
		if !IsReported(reportResolveError(err)) {
			printError("%s", errors.UserMessage(err))
		}
		return
	}
	printOrder(result.Order, result.Declarations)
	printStats(result.Stats.Components, result.Stats.Edges, result.CacheHit)
	prog.done(result)
}
