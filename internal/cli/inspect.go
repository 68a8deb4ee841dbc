package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/component"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		jsonOut bool
		files   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [roots...]",
		Short: "List discovered and manual declarations without resolving them",
		Long: `Print every declaration that would be resolved, in registration order.
Nothing is cached or resolved, so inspect also works on trees that contain
a dependency cycle.`,
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

			if files {
				paths, err := runner.Files(ctx, opts)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd.OutOrStdout(), paths)
				}
				for _, p := range paths {
					printFile(p)
				}
				return nil
			}

			decls, err := runner.Declarations(ctx, opts)
			if err != nil {
				return err
			}
			if jsonOut {
				if decls == nil {
					decls = []component.Declaration{}
				}
				return writeJSON(cmd.OutOrStdout(), decls)
			}
			if len(decls) == 0 {
				printInfo("No declarations found")
				return nil
			}
			printDeclarations(decls)
			printNewline()
			printNextStep("Resolve the order", "runorder resolve")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print declarations as JSON")
	cmd.Flags().BoolVar(&files, "files", false, "list matched declaration files instead")

	return cmd
}
