package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"settingsync.dev/pkg/settingsync/internal/controller"
)

// packagesCmd represents the packages command.
var packagesCmd = newPackagesCmd()

func newPackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List the installed packages a backup would record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			packages, err := orchestrator.Packages(cmd.Context())
			if err != nil {
				return fmt.Errorf("list packages: %w", err)
			}

			controller.RenderPackages(cmd.OutOrStdout(), packages)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}
