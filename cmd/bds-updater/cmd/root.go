package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/bds-updater/internal/config"
	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// serverFolder overrides the configured live server folder.
	serverFolder string
	// cacheFolder overrides the configured cache folder.
	cacheFolder string

	// rootCmd represents the base command for installing Bedrock server updates.
	rootCmd = &cobra.Command{
		Use:           "bds-updater",
		Short:         "Install or upgrade a Bedrock dedicated server in place",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyLogLevel(cmd)
		},
	}
)

// Execute runs the bds-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configRequired reports whether --config was given explicitly.
func configRequired(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("config")
}

// applyLogLevel sets the global level from --log-level or the config file.
func applyLogLevel(cmd *cobra.Command) error {
	name := logLevel
	if name == "" {
		if cfg, err := config.LoadOptional(configPath); err == nil {
			name = cfg.LogLevel
		}
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("unknown log level %q", name)
	}

	logger.SetLevel(level)
	logger.DebugKV(cmd.Context(), "Log level applied", "level", level.String())

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&serverFolder, "server-dir", "", "live server folder (overrides server_folder)")
	flags.StringVar(&cacheFolder, "cache-dir", "", "cache folder (overrides cache_folder)")
}
