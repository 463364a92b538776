package cmd

import (
	"github.com/spf13/cobra"
)

// checkBackupCmd represents the check-backup command.
var checkBackupCmd = newCheckBackupCmd()

func newCheckBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-backup",
		Short: "Check whether the gist holds a newer backup",
		Long: `Compare the gist's latest revision with the one last backed up or
restored on this machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return orchestrator.CheckForUpdate(cmd.Context(), true)
		},
	}
}

func init() {
	rootCmd.AddCommand(checkBackupCmd)
}
