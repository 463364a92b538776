// Package cmd provides the root command and CLI setup for settingsync.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	"settingsync.dev/pkg/settingsync/internal/controller"
	"settingsync.dev/pkg/settingsync/internal/domain"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// orchestrator and prompter are built on first use so tests can swap them.
var orchestrator domain.Orchestrator
var prompter controller.Prompter

var configDirFlag string
var apiURLFlag string
var gistIDFlag string
var tokenFlag string
var verboseFlag bool
var tuiFlag bool

const rootLongDescription = `settingsync backs up and restores your editor setup through a GitHub gist:
settings (with per-scope overrides), the installed packages and themes,
keymap, styles, init script, snippets and any extra files you list.

The gist id and access token are read from the editor configuration
("sync-settings.gistId", "sync-settings.personalAccessToken"), falling back
to --gist-id/--token, GIST_ID/GITHUB_TOKEN or settingsync.yaml.`

// standaloneAnnotation marks commands that never touch the editor
// configuration.
const standaloneAnnotation = "settingsync/standalone"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "settingsync",
		Short:        "Sync editor settings through a GitHub gist",
		Long:         rootLongDescription,
		SilenceUsage: true,
		Annotations:  map[string]string{standaloneAnnotation: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			if orchestrator != nil || cmd.Annotations[standaloneAnnotation] == "true" {
				return nil
			}

			built, err := buildOrchestrator(cmd)
			if err != nil {
				return err
			}

			orchestrator = built

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configDirFlag, configDirFlagName, "c", viper.GetString(configDirKey), "editor configuration directory")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(configDirFlagName), configDirKey)

	cmd.PersistentFlags().StringVar(&apiURLFlag, apiURLFlagName, viper.GetString(apiURLKey), "GitHub API base URL")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(apiURLFlagName), apiURLKey)

	cmd.PersistentFlags().StringVar(&gistIDFlag, gistIDFlagName, "", "gist id used when the editor configuration has none")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(gistIDFlagName), gistIDKey)

	cmd.PersistentFlags().StringVar(&tokenFlag, tokenFlagName, "", "access token used when the editor configuration has none")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(tokenFlagName), tokenKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().BoolVar(&tuiFlag, tuiFlagName, viper.GetBool(tuiKey), "use interactive prompts when attached to a terminal")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(tuiFlagName), tuiKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// buildOrchestrator wires the local adapters for the configured editor
// directory.
func buildOrchestrator(cmd *cobra.Command) (domain.Orchestrator, error) {
	configDir := m.Path(viper.GetString(configDirKey))

	store, err := adapter.NewYAMLConfigStore(m.Path(filepath.Join(string(configDir), adapter.ConfigFileName)))
	if err != nil {
		return nil, fmt.Errorf("load editor configuration: %w", err)
	}

	if prompter == nil {
		prompter = newPrompter(cmd)
	}

	apiURL := viper.GetString(apiURLKey)

	return domain.NewOrchestrator(domain.Dependencies{
		Store:    store,
		Files:    adapter.NewLocalEditorFSAdapter(configDir),
		Registry: adapter.NewLocalPackageRegistry(configDir),
		PackageManager: adapter.NewLocalPackageManagerAdapter(
			viper.GetString(packageManagerCommandKey),
			packageManagerTimeout(),
		),
		Opener: adapter.NewBrowserOpener(),
		Sink:   controller.NewConsoleSink(cmd.OutOrStdout(), prompter),
		NewGistClient: func(token string) adapter.GistClient {
			return adapter.NewHTTPGistClient(apiURL, token)
		},
		Fallback: envFallback,
	}), nil
}

// newPrompter picks the interactive front end. Without a terminal on stdin
// there is nobody to ask and notices print their actions as hints instead.
func newPrompter(cmd *cobra.Command) controller.Prompter {
	if !controller.IsTTY(os.Stdin) {
		return nil
	}

	if viper.GetBool(tuiKey) && controller.IsTTY(os.Stdout) {
		return controller.NewTUIPrompter(os.Stdin, os.Stdout)
	}

	return controller.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
