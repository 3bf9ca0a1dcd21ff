package commands

import (
	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/cmd/gantry/handlers"
)

// Plan returns the command that previews what apply would do.
func Plan() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview what apply would change",
		Long: `Compare the specification with recorded state and print the
action apply would take for each resource: create, update, noop, or
delete for resources no longer declared.

No provider calls are made.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to specification file (default: gantry.yaml)")

	return cmd
}
