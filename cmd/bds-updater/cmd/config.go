package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/bds-updater/internal/config"
)

var (
	// forceConfig overwrites an existing configuration file.
	forceConfig bool

	errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

	// configCmd groups configuration helpers.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	// configInitCmd writes a configuration file with every default filled in.
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !forceConfig {
				return fmt.Errorf("%s: %w", configPath, errConfigExists)
			}

			cfg := config.Default()
			if serverFolder != "" {
				cfg.ServerFolder = serverFolder
			}

			if cacheFolder != "" {
				cfg.CacheFolder = cacheFolder
			}

			if err := config.Save(configPath, cfg); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration written to", configPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
