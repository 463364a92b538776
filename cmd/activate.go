package cmd

import (
	"github.com/spf13/cobra"
)

// activateCmd represents the activate command.
var activateCmd = newActivateCmd()

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Run the startup checks",
		Long: `Verify the gist id and token are configured and, unless
"sync-settings.checkForUpdatedBackup" is off, check for a newer backup. Meant
to run when the editor starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return orchestrator.Activate(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(activateCmd)
}
