package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/resolver"
)

// resolveFlags holds flags for the resolve command.
type resolveFlags struct {
	only     []string
	except   []string
	json     bool
	refresh  bool
	cacheKey string
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve [roots...]",
		Short: "Print the execution order of all discovered components",
		Long: `Discover declarations under the given roots (or the configured roots),
merge manual registrations and print the resolved execution order.

--only and --exclude filter the printed order after resolution. Matching is
exact or by substring and never changes the relative order.`,
		Example: `  # Resolve seeders under ./modules
  runorder resolve modules

  # Only billing components, as JSON
  runorder resolve --only billing --json

  # Ignore the cache for this run
  runorder resolve --refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args, flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.only, "only", nil, "keep only matching components (repeatable, comma-separated)")
	cmd.Flags().StringArrayVar(&flags.except, "exclude", nil, "drop matching components from the output (repeatable, comma-separated)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "re-resolve and overwrite the cached order")
	cmd.Flags().StringVar(&flags.cacheKey, "cache-key", "", "explicit cache signature (default: derived from config and files)")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, args []string, flags resolveFlags) error {
	ctx := cmd.Context()

	opts, err := c.pipelineOptions(args)
	if err != nil {
		return err
	}
	opts.Only = splitList(flags.only)
	opts.Except = splitList(flags.except)
	opts.Refresh = flags.refresh
	opts.Signature = flags.cacheKey

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := startSpinner(cmd, flags.json, resolvingMessage(opts.Roots))
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.Stop()
		return reportResolveError(err)
	}

	if flags.json {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	if result.CacheHit {
		spinner.StopWithSuccess("Resolved %d components from cache", len(result.Resolved))
	} else {
		spinner.StopWithSuccess("Resolved %d components", len(result.Resolved))
	}
	printOrder(result.Order, result.Declarations)
	printStats(result.Stats.Components, result.Stats.Edges, result.CacheHit)
	if n := result.Stats.Discovery.Skipped; n > 0 {
		printWarning("%d declaration files skipped (run with -v for details)", n)
	}
	return nil
}

// reportResolveError prints a cycle in the CLI format and marks it as
// reported. Other errors are returned unchanged.
func reportResolveError(err error) error {
	var ce *resolver.CycleError
	if stderrors.As(err, &ce) {
		printCycle(ce.Path)
		return reported(err)
	}
	return err
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error { return &reportedError{err: err} }

// IsReported reports whether err was already printed by a command, so the
// caller should only set the exit status.
func IsReported(err error) bool {
	var r *reportedError
	return stderrors.As(err, &r)
}

// Process exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalid     = 2 // validation errors
	ExitInterrupted = 130
)

// ExitCode maps a command error to the process exit status. A failed
// validation exits 2 so scripts can tell it from a cycle or a bad config.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errors.ErrCodeValidationFailed):
		return ExitInvalid
	default:
		return ExitFailure
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode output")
	}
	return nil
}
