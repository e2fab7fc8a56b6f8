package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command, which checks that a
// scenario file and its source models load, compile and assemble.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file",
		Long: `Load a scenario file, compile its source models and assemble the
sampling inputs without running anything.

Example:
  sesgen validate scenarios/demo.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			s, model, err := loadScenario(args[0])
			if err != nil {
				out.Error("validation failed", err.Error())
				return err
			}

			if rootOpts.Format == "json" {
				return out.Success(map[string]any{
					"scenario": s.Name,
					"sources":  len(model.Sources),
					"sites":    model.Sites.Len(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scenario %s is valid: %d source(s), %d site(s)\n",
				s.Name, len(model.Sources), model.Sites.Len())
			return nil
		},
	}
}
