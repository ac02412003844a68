package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/service/installer"
)

var (
	// preview selects the preview channel archives.
	preview bool
	// dryRun prints the plan without touching the live tree.
	dryRun bool
	// stopServer kills a running bedrock_server before reconciling.
	stopServer bool

	// installCmd downloads a release and reconciles it with the live server folder.
	installCmd = &cobra.Command{
		Use:   "install <version>",
		Short: "Download a server release and apply it to the server folder",
		Long: "Download the release archive, unpack it into the cache and apply it file by file. " +
			"allowlist.json, permissions.json and whitelist.json are kept, server.properties and " +
			"config/default/permissions.json are merged, everything else is replaced.",
		Example: "  bds-updater install 1.21.44.01 --server-dir /srv/bedrock",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &installer.Options{
				ConfigPath:     configPath,
				ConfigRequired: configRequired(cmd),
				Version:        args[0],
				Preview:        preview,
				ServerFolder:   serverFolder,
				CacheFolder:    cacheFolder,
				DryRun:         dryRun,
				StopServer:     stopServer,
				Verbose:        logger.Level() <= zapcore.DebugLevel,
				Output:         cmd.ErrOrStderr(),
			}

			if dryRun {
				options.Output = cmd.OutOrStdout()
			}

			return installer.Run(cmd.Context(), options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	installCmd.Flags().BoolVar(&preview, "preview", false, "install from the preview channel")
	installCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would change without touching the server folder")
	installCmd.Flags().BoolVar(&stopServer, "stop-server", false, "kill a running bedrock_server instead of refusing")

	rootCmd.AddCommand(installCmd)
}
