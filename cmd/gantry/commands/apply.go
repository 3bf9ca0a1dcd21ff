package commands

import (
	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/cmd/gantry/handlers"
)

// Apply returns the command that converges infrastructure towards the
// declared specification.
//
// Optional flags:
//
//	--config, -c: Path to the specification file (default: auto-detect gantry.yaml)
//	--workers, -w: Concurrent provisioning workers
//	--verbose, -v: Debug logging
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required)
func Apply() *cobra.Command {
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update declared resources",
		Long: `Create or update all resources declared in the specification.

Resources are provisioned in dependency order, independent resources in
parallel. Resources already recorded as applied with unchanged
configuration are skipped. Exit status is zero only when every resource
ends up applied.

Examples:
  # Apply gantry.yaml from the current directory
  gantry apply

  # Apply a specific specification
  gantry apply -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to specification file (default: gantry.yaml)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent provisioning workers (default 4)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
