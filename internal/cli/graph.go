package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/pipeline"
	"github.com/matzehuels/runorder/pkg/render"
	"github.com/matzehuels/runorder/pkg/resolver"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphFlags holds flags for the graph command.
type graphFlags struct {
	format     string
	output     string
	detailed   bool
	showAbsent bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph [roots...]",
		Short: "Render the ordering graph as Graphviz DOT or SVG",
		Long: `Render every "must run before" edge between declared components. Nodes are
numbered with their execution step. When the graph contains a cycle the
graph is still rendered, without steps, so the cycle can be inspected.`,
		Example: `  runorder graph modules -o order.dot
  runorder graph --format svg --detailed -o order.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", formatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include priority and version in node labels")
	cmd.Flags().BoolVar(&flags.showAbsent, "show-absent", false, "draw references to components that are not registered")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, flags graphFlags) error {
	ctx := cmd.Context()
	if flags.format != formatDOT && flags.format != formatSVG {
		return errors.New(errors.ErrCodeInvalidInput, "unknown graph format %q (want dot or svg)", flags.format)
	}

	opts, err := c.pipelineOptions(args)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	decls, err := runner.Declarations(ctx, opts)
	if err != nil {
		return err
	}
	order, err := pipeline.Resolve(ctx, decls)
	if err != nil {
		var ce *resolver.CycleError
		if !stderrors.As(err, &ce) {
			return err
		}
		printWarning("dependency cycle: %s", formatCycle(ce.Path))
	}

	dot := render.ToDOT(decls, render.Options{
		Detailed:   flags.detailed,
		ShowAbsent: flags.showAbsent,
		Order:      order,
	})
	data := []byte(dot)
	if flags.format == formatSVG {
		if data, err = render.RenderSVG(ctx, dot); err != nil {
			return err
		}
	}

	if flags.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	printSuccess("Rendered %d components", len(decls))
	printFile(flags.output)
	return nil
}
