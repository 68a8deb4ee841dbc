package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/cache"
	"github.com/matzehuels/runorder/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the resolved-order cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInvalidateCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached order from the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			clearer, ok := backend.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled, nothing to clear")
				return nil
			}
			if err := clearer.Clear(ctx); err != nil {
				return errors.Wrap(errors.ErrCodeCacheUnavailable, err, "clear cache")
			}

			printSuccess("Cleared cache")
			if fc, ok := backend.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			} else {
				printDetail("Backend: %s", c.cfg.Cache.Backend)
			}
			return nil
		},
	}
}

// cacheInvalidateCommand creates the "cache invalidate" subcommand.
func (c *CLI) cacheInvalidateCommand() *cobra.Command {
	var cacheKey string

	cmd := &cobra.Command{
		Use:   "invalidate [roots...]",
		Short: "Drop the cached order for the current declarations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.pipelineOptions(args)
			if err != nil {
				return err
			}
			opts.Signature = cacheKey

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			sig, err := runner.Invalidate(ctx, opts)
			if err != nil {
				return err
			}
			printSuccess("Invalidated cached order")
			printDetail("Signature: %s", sig)
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheKey, "cache-key", "", "explicit cache signature (default: derived from config and files)")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			c.Logger.Debug("effective config", "source", c.describeConfig(), "backend", c.cfg.Cache.Backend)
			return nil
		},
	}
}
