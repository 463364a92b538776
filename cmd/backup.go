package cmd

import (
	"github.com/spf13/cobra"
)

var backupForceFlag bool

// backupCmd represents the backup command.
var backupCmd = newBackupCmd()

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up settings, packages and user files to the gist",
		Long: `Upload the current settings, installed packages, keymap, styles, init
script, snippets and configured extra files to the gist.

When the extra files include the editor's config.yaml while the access token
is stored in it, the backup stops and asks for confirmation; --force skips
that question and turns the warning off.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if backupForceFlag {
				return orchestrator.ConfirmBackup(cmd.Context())
			}

			return orchestrator.Backup(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&backupForceFlag, "force", "f", false, "back up config.yaml even when it holds the access token")

	return cmd
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
