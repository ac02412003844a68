package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"

	"github.com/oshokin/bds-updater/internal/config"
	"github.com/oshokin/bds-updater/internal/domain/release"
	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/repository/cache"
	"github.com/oshokin/bds-updater/internal/service/common"
)

// Options are inputs accepted by the install entry point.
type Options struct {
	// ConfigPath is the path to the settings YAML file.
	ConfigPath string
	// ConfigRequired fails the run when ConfigPath does not exist.
	ConfigRequired bool
	// Version is the release to install, e.g. 1.21.44.01.
	Version string
	// Preview selects the preview channel.
	Preview bool
	// ServerFolder overrides the configured live server folder.
	ServerFolder string
	// CacheFolder overrides the configured cache folder.
	CacheFolder string
	// DryRun prints the reconciliation plan instead of applying it.
	DryRun bool
	// StopServer kills a running bedrock_server instead of refusing to update.
	StopServer bool
	// Verbose prints a line for every processed file.
	Verbose bool
	// Output receives progress and dry-run plans; stderr when nil.
	Output io.Writer
	// Platform overrides the target GOOS; the running OS when empty.
	Platform string
}

// Run installs the requested version and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) (err error) {
	ctx = logger.WithName(ctx, "installer")

	version, err := release.NewVersionInfo(opts.Version, opts.Preview)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.ConfigPath, opts.ConfigRequired, opts.ServerFolder, opts.CacheFolder)
	if err != nil {
		return err
	}

	manager, err := newCacheManager(cfg)
	if err != nil {
		return err
	}

	if err = manager.Lock(); err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, manager.Unlock())
	}()

	logInstallStart(ctx, version, cfg, manager)

	keepTable, err := NewKeepTable(append(DefaultKeepEntries(), KeepPaths(cfg.KeepPaths)...)...)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	goos := opts.Platform
	if goos == "" {
		goos = runtime.GOOS
	}

	client := common.NewClient(
		common.WithCallTimeout(cfg.DownloadTimeout),
		common.WithRetryCount(cfg.RetryCount),
	)

	installerOptions := []Option{
		WithKeepTable(keepTable),
		WithBaseURL(cfg.DownloadBaseURL),
		WithPlatform(goos),
		WithConcurrency(cfg.Concurrency),
		WithProgressOutput(out, opts.Verbose),
	}

	if opts.DryRun {
		installerOptions = append(installerOptions, WithDryRun(out))
	} else {
		installerOptions = append(installerOptions, WithServerGuard(ServerGuard(goos, opts.StopServer)))
	}

	if err = New(manager, client, installerOptions...).Install(ctx, version); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Install completed", "version", version.String(), "server_folder", cfg.ServerFolder)

	return nil
}

// CacheOptions are inputs accepted by the cache commands.
type CacheOptions struct {
	// ConfigPath is the path to the settings YAML file.
	ConfigPath string
	// ConfigRequired fails the command when ConfigPath does not exist.
	ConfigRequired bool
	// ServerFolder overrides the configured live server folder.
	ServerFolder string
	// CacheFolder overrides the configured cache folder.
	CacheFolder string
	// Output receives the report.
	Output io.Writer
}

// RunCacheStatus prints what the cache of a server folder holds.
func RunCacheStatus(ctx context.Context, opts *CacheOptions) error {
	ctx = logger.WithName(ctx, "cache")

	cfg, err := loadConfig(opts.ConfigPath, opts.ConfigRequired, opts.ServerFolder, opts.CacheFolder)
	if err != nil {
		return err
	}

	manager, err := newCacheManager(cfg)
	if err != nil {
		return err
	}

	status, err := manager.Status()
	if err != nil {
		return err
	}

	cached := status.CachedVersion
	if cached == "" {
		cached = "none"
	}

	_, _ = fmt.Fprintf(opts.Output, "cache folder:   %s\n", status.Root)
	_, _ = fmt.Fprintf(opts.Output, "server folder:  %s\n", manager.ServerFolder())
	_, _ = fmt.Fprintf(opts.Output, "cached version: %s\n", cached)
	_, _ = fmt.Fprintf(opts.Output, "staged files:   %d (%s)\n",
		status.StagedFiles, humanize.Bytes(uint64(max(status.StagedBytes, 0))))

	logger.DebugKV(ctx, "Cache status reported", "root", status.Root)

	return nil
}

// RunCacheClear removes the staging tree of a server folder.
func RunCacheClear(ctx context.Context, opts *CacheOptions) (err error) {
	ctx = logger.WithName(ctx, "cache")

	cfg, err := loadConfig(opts.ConfigPath, opts.ConfigRequired, opts.ServerFolder, opts.CacheFolder)
	if err != nil {
		return err
	}

	manager, err := newCacheManager(cfg)
	if err != nil {
		return err
	}

	if err = manager.Lock(); err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, manager.Unlock())
	}()

	if err = manager.ClearCache(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Cache cleared", "root", manager.Root())

	return nil
}

// loadConfig reads settings and applies command-line overrides.
func loadConfig(path string, required bool, serverFolder, cacheFolder string) (*config.Config, error) {
	load := config.LoadOptional
	if required {
		load = config.Load
	}

	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if serverFolder != "" {
		cfg.ServerFolder = serverFolder
	}

	if cacheFolder != "" {
		cfg.CacheFolder = cacheFolder
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newCacheManager builds the cache manager for the configured server folder.
func newCacheManager(cfg *config.Config) (*cache.Manager, error) {
	root := cfg.CacheFolder
	if root == "" {
		var err error

		root, err = cache.DefaultRoot(cfg.ServerFolder)
		if err != nil {
			return nil, err
		}
	}

	return cache.NewManager(root, cfg.ServerFolder), nil
}

// logInstallStart records who started the install and where.
func logInstallStart(ctx context.Context, version release.VersionInfo, cfg *config.Config, manager *cache.Manager) {
	kvs := []any{
		"version", version.String(),
		"server_folder", cfg.ServerFolder,
		"cache_folder", manager.Root(),
	}

	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect the current user", "error", err)
	} else {
		kvs = append(kvs, "hostname", actor.Hostname, "username", actor.Username)
	}

	logger.InfoKV(ctx, "Install started", kvs...)
}
