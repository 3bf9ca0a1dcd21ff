package commands

import (
	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/cmd/gantry/handlers"
)

// Init returns the command for interactively creating a specification.
//
// Flags:
//
//	--output, -o: Path to output file (default "gantry.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a specification",
		Long: `Interactively create a specification file.

The wizard asks about:

  - Project name and location
  - Control plane size
  - Worker node group size
  - Addons to install

The generated YAML declares a network, an access role, a cluster, a
worker node group and the selected addons, wired together through
output references.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "gantry.yaml", "Output file path")

	return cmd
}
