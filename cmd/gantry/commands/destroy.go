package commands

import (
	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/cmd/gantry/handlers"
)

// Destroy returns the command that tears down all declared resources.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Tear down all declared resources",
		Long: `Tear down every resource declared in the specification.

Resources are removed in reverse dependency order. State records are
deleted as resources disappear, so an interrupted destroy can be
resumed by running destroy again.

Examples:
  # Destroy with confirmation prompt
  gantry destroy

  # Destroy without prompting
  gantry destroy --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to specification file (default: gantry.yaml)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent teardown workers (default 4)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
