package cmd

import (
	"github.com/spf13/cobra"
)

// restoreCmd represents the restore command.
var restoreCmd = newRestoreCmd()

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore settings, packages and user files from the gist",
		Long: `Download the gist and apply it: settings are merged into the live
configuration, missing packages are installed (and obsolete ones removed when
"sync-settings.removeObsoletePackages" is set), user files are overwritten.
Malformed settings.json or packages.json abort the restore before anything is
written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return orchestrator.Restore(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
