package commands

import (
	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/cmd/gantry/handlers"
)

// Status returns the command that prints recorded resource state.
func Status() *cobra.Command {
	var (
		configPath string
		showOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded resource state",
		Long: `Print the recorded state of every declared resource: lifecycle
state, last update time and last error. Resources declared but never
applied show as pending.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath, showOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to specification file (default: gantry.yaml)")
	cmd.Flags().BoolVarP(&showOutput, "outputs", "o", false, "Include recorded output attributes")

	return cmd
}
