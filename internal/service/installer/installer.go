package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/oshokin/bds-updater/internal/config"
	"github.com/oshokin/bds-updater/internal/domain/release"
	"github.com/oshokin/bds-updater/internal/logger"
)

// ownerExecute is OR-ed into the server binary mode on non-Windows systems.
const ownerExecute os.FileMode = 0o100

// Cache is the on-disk archive cache an install works against.
type Cache interface {
	// ServerFolder returns the live server tree.
	ServerFolder() string
	// CachedServerFolder returns the staging tree.
	CachedServerFolder() string
	// IsVersionCached reports whether version is fully extracted in staging.
	IsVersionCached(version string) bool
	// MarkVersionDownloaded records version as fully extracted.
	MarkVersionDownloaded(version string) error
	// PrepareStaging empties the staging tree before a download.
	PrepareStaging() error
	// ClearCache removes the staging tree and its marker.
	ClearCache() error
}

// Downloader fetches archives over HTTP.
type Downloader interface {
	// Get returns a successful response whose body the caller closes.
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Installer runs the download, reconcile and cleanup pipeline.
type Installer struct {
	// cache is the staging cache for the target server.
	cache Cache
	// downloader fetches release archives.
	downloader Downloader
	// keepTable decides per path how live files are treated.
	keepTable *KeepTable
	// baseURL prefixes every archive URL.
	baseURL string
	// goos selects the archive platform and the executable fix-up.
	goos string
	// concurrency caps the file tasks running at once per directory.
	concurrency int
	// progressOut receives the progress bar and per-file status.
	progressOut io.Writer
	// verbose prints every completed file, not only failures.
	verbose bool
	// planOut, when set, turns Install into a dry run printing the plan here.
	planOut io.Writer
	// guard runs before the live tree is touched.
	guard func(ctx context.Context) error
	// state is the current lifecycle stage.
	state State
}

// Option configures an Installer.
type Option func(*Installer)

// WithKeepTable replaces the default keep table.
func WithKeepTable(table *KeepTable) Option {
	return func(i *Installer) {
		if table != nil {
			i.keepTable = table
		}
	}
}

// WithBaseURL sets the archive URL prefix.
func WithBaseURL(baseURL string) Option {
	return func(i *Installer) {
		if baseURL != "" {
			i.baseURL = baseURL
		}
	}
}

// WithPlatform installs for goos instead of the running OS.
func WithPlatform(goos string) Option {
	return func(i *Installer) {
		if goos != "" {
			i.goos = goos
		}
	}
}

// WithConcurrency caps concurrent file tasks per directory.
func WithConcurrency(limit int) Option {
	return func(i *Installer) {
		if limit > 0 {
			i.concurrency = limit
		}
	}
}

// WithProgressOutput sends progress rendering to out.
func WithProgressOutput(out io.Writer, verbose bool) Option {
	return func(i *Installer) {
		if out != nil {
			i.progressOut = out
		}

		i.verbose = verbose
	}
}

// WithDryRun makes Install stop after extraction and print the reconciliation
// plan to out instead of touching the live tree.
func WithDryRun(out io.Writer) Option {
	return func(i *Installer) {
		i.planOut = out
	}
}

// WithServerGuard runs guard right before reconciliation; an error aborts the install.
func WithServerGuard(guard func(ctx context.Context) error) Option {
	return func(i *Installer) {
		i.guard = guard
	}
}

// New creates an installer over cache and downloader.
func New(cache Cache, downloader Downloader, opts ...Option) *Installer {
	i := &Installer{
		cache:       cache,
		downloader:  downloader,
		keepTable:   DefaultKeepTable(),
		baseURL:     config.DefaultDownloadBaseURL,
		goos:        runtime.GOOS,
		concurrency: config.DefaultConcurrency(),
		progressOut: os.Stderr,
		state:       StateIdle,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// State returns the current lifecycle stage.
func (i *Installer) State() State {
	return i.state
}

// Install brings the live server folder to version.
//
// A cached, fully extracted archive skips the download. Reconciliation always
// runs. Per-file failures come back as *UpdateError and leave the cache in
// place so a retry reuses the archive.
func (i *Installer) Install(ctx context.Context, version release.VersionInfo) error {
	ctx = logger.WithKV(ctx, "version", version.Version)
	i.setState(ctx, StateIdle)

	if i.cache.IsVersionCached(version.Version) {
		logger.InfoKV(ctx, "Archive already cached, skipping download",
			"staging", i.cache.CachedServerFolder())
	} else {
		if err := i.downloadAndExtractServer(ctx, version); err != nil {
			return i.fail(ctx, fmt.Errorf("download and extract server: %w", err))
		}

		if err := i.cache.MarkVersionDownloaded(version.Version); err != nil {
			return i.fail(ctx, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return i.fail(ctx, err)
	}

	if i.planOut != nil {
		if err := i.printPlan(ctx); err != nil {
			return i.fail(ctx, err)
		}

		i.setState(ctx, StateDone)

		return nil
	}

	if i.guard != nil {
		if err := i.guard(ctx); err != nil {
			return i.fail(ctx, err)
		}
	}

	i.setState(ctx, StateReconciling)

	if err := i.updateFiles(ctx); err != nil {
		return i.fail(ctx, err)
	}

	if i.goos != "windows" {
		i.setState(ctx, StatePermissionFix)

		if err := i.fixExecutablePermissions(); err != nil {
			return i.fail(ctx, err)
		}
	}

	i.setState(ctx, StateCacheClear)

	if err := i.cache.ClearCache(); err != nil {
		logger.WarnKV(ctx, "Unable to clear the cache", "error", err)
	}

	i.setState(ctx, StateDone)

	return nil
}

// fixExecutablePermissions adds the owner execute bit to the server binary.
func (i *Installer) fixExecutablePermissions() error {
	path := filepath.Join(i.cache.ServerFolder(), release.ExecutableName(i.goos))

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat server executable: %w", err)
	}

	if err = os.Chmod(path, info.Mode().Perm()|ownerExecute); err != nil {
		return fmt.Errorf("make server executable: %w", err)
	}

	return nil
}

func (i *Installer) setState(ctx context.Context, state State) {
	i.state = state
	logger.InfoKV(ctx, "Install state changed", "state", state.String())
}

func (i *Installer) fail(ctx context.Context, err error) error {
	i.setState(ctx, StateFailed)

	return err
}
