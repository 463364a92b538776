package cmd

import (
	"github.com/spf13/cobra"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show what a backup would change in the gist",
		Long: `Print a unified diff between the gist's files and the files a backup
would upload now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return orchestrator.Diff(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
