package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/bds-updater/internal/service/installer"
)

var (
	// cacheCmd groups cache maintenance commands.
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the download cache",
	}

	// cacheStatusCmd reports the cached version and staged size.
	cacheStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show what the cache holds for the server folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer.RunCacheStatus(cmd.Context(), cacheOptions(cmd))
		},
	}

	// cacheClearCmd removes the staging tree.
	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached archive contents for the server folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer.RunCacheClear(cmd.Context(), cacheOptions(cmd))
		},
	}
)

func cacheOptions(cmd *cobra.Command) *installer.CacheOptions {
	return &installer.CacheOptions{
		ConfigPath:     configPath,
		ConfigRequired: configRequired(cmd),
		ServerFolder:   serverFolder,
		CacheFolder:    cacheFolder,
		Output:         cmd.OutOrStdout(),
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
