package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default settingsync.yaml configuration file",
		Long: `Create a settingsync.yaml in the current working directory populated with
the current CLI defaults (editor directory, API URL, package manager, logging)
so it can be edited manually.`,
		Annotations: map[string]string{standaloneAnnotation: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := writableConfig().SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			return nil
		},
	}
}

// secretKeys never end up in a generated config file, even when the
// environment provides them.
var secretKeys = map[string]bool{
	gistIDKey: true,
	tokenKey:  true,
}

// writableConfig copies the effective settings minus secrets into a fresh
// viper instance.
func writableConfig() *viper.Viper {
	cfg := viper.New()

	for _, key := range viper.AllKeys() {
		if secretKeys[key] {
			continue
		}

		cfg.Set(key, viper.Get(key))
	}

	return cfg
}

func init() {
	rootCmd.AddCommand(initCmd)
}
