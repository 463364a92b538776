package cmd

import (
	"github.com/spf13/cobra"
)

// viewBackupCmd represents the view-backup command.
var viewBackupCmd = newViewBackupCmd()

func newViewBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view-backup",
		Short: "Open the gist in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return orchestrator.ViewBackup(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(viewBackupCmd)
}
