package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/runorder/pkg/errors"
	"github.com/matzehuels/runorder/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate [roots...]",
		Short: "Check required dependencies and version constraints",
		Long: `Run the validation pass over all declarations. Absent after/before targets
and missing optional dependencies are reported as info; missing required
dependencies and unmet version constraints are errors and make the command
exit non-zero. Validation never changes the resolved order.`,
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

			spinner := startSpinner(cmd, jsonOut, "Validating declarations...")
			decls, err := runner.Declarations(ctx, opts)
			if err != nil {
				spinner.Stop()
				return err
			}
			report := validate.Check(decls)

			if jsonOut {
				if report.Issues == nil {
					report.Issues = []validate.Issue{}
				}
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if len(report.Issues) == 0 {
				spinner.StopWithSuccess("%d components, no issues", len(decls))
			} else {
				spinner.Stop()
				printIssues(report)
			}

			if report.HasErrors() {
				n := len(report.Errors())
				if !jsonOut {
					printError("%d validation errors", n)
				}
				return reported(errors.New(errors.ErrCodeValidationFailed, "%d validation errors", n))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")

	return cmd
}
