package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const forkPrompt = "Enter Gist ID to fork"

// forkCmd represents the fork command.
var forkCmd = newForkCmd()

func newForkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fork [gist-id]",
		Short: "Fork another gist and use the fork as your backup",
		Long: `Fork the given gist under your account and save the new gist id to the
editor configuration. Without an argument the gist id is asked for.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sourceID string
			if len(args) == 1 {
				sourceID = args[0]
			} else {
				if prompter == nil {
					return fmt.Errorf("no gist id given and no terminal to ask for one")
				}

				answer, err := prompter.Input(cmd.Context(), forkPrompt)
				if err != nil {
					return fmt.Errorf("read gist id: %w", err)
				}

				sourceID = answer
			}

			if strings.TrimSpace(sourceID) == "" {
				return nil
			}

			return orchestrator.Fork(cmd.Context(), sourceID)
		},
	}
}

func init() {
	rootCmd.AddCommand(forkCmd)
}
