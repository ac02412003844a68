package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

const (
	// MarkerFilename records the fully extracted version at the staging root.
	MarkerFilename = ".VERSION"

	// stagingDirname is the staging tree folder inside the cache root.
	stagingDirname = "server"
	// lockFilename is the advisory lock guarding the cache root.
	lockFilename = "install.lock"
	// applicationDirname groups per-server cache roots in the user cache dir.
	applicationDirname = "bds-updater"

	// DefaultDirPermissions is used for every directory the cache creates.
	DefaultDirPermissions os.FileMode = 0o755
	// markerPermissions is used for the marker file.
	markerPermissions os.FileMode = 0o644
)

// ErrCacheLocked is returned when another install holds the cache lock.
var ErrCacheLocked = errors.New("cache is locked by another install")

// Manager tracks the cache state of one server installation.
type Manager struct {
	// root is the per-installation cache directory.
	root string
	// serverFolder is the live server tree.
	serverFolder string
	// lock guards root against concurrent installs.
	lock *flock.Flock
}

// Status summarises the cache for reporting.
type Status struct {
	// Root is the cache directory.
	Root string
	// CachedVersion is the version recorded by the marker, empty when none.
	CachedVersion string
	// StagedFiles is the number of regular files in the staging tree.
	StagedFiles int
	// StagedBytes is the total size of the staging tree.
	StagedBytes int64
}

// DefaultRoot derives a per-installation cache root under the user cache
// directory, keyed by a hash of the absolute server folder path.
func DefaultRoot(serverFolder string) (string, error) {
	absolute, err := filepath.Abs(serverFolder)
	if err != nil {
		return "", fmt.Errorf("resolve server folder: %w", err)
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}

	key := strconv.FormatUint(xxhash.Sum64String(absolute), 16)

	return filepath.Join(base, applicationDirname, key), nil
}

// NewManager creates a manager for the given cache root and live server folder.
func NewManager(root, serverFolder string) *Manager {
	root = filepath.Clean(root)

	return &Manager{
		root:         root,
		serverFolder: filepath.Clean(serverFolder),
		lock:         flock.New(filepath.Join(root, lockFilename)),
	}
}

// Root returns the cache directory.
func (m *Manager) Root() string {
	return m.root
}

// ServerFolder returns the live, currently installed server tree.
func (m *Manager) ServerFolder() string {
	return m.serverFolder
}

// CachedServerFolder returns the staging tree archives are extracted into.
func (m *Manager) CachedServerFolder() string {
	return filepath.Join(m.root, stagingDirname)
}

// IsVersionCached reports whether the marker exists and records version.
func (m *Manager) IsVersionCached(version string) bool {
	cached, err := m.cachedVersion()
	if err != nil {
		return false
	}

	return cached != "" && cached == version
}

// MarkVersionDownloaded records version as fully extracted. Callers must only
// invoke it after the whole archive landed in the staging tree.
func (m *Manager) MarkVersionDownloaded(version string) error {
	if err := os.MkdirAll(m.CachedServerFolder(), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create staging folder: %w", err)
	}

	if err := os.WriteFile(m.markerPath(), []byte(version), markerPermissions); err != nil {
		return fmt.Errorf("write cache marker: %w", err)
	}

	return nil
}

// PrepareStaging discards whatever a previous, unfinished run left in the
// staging tree and recreates it empty.
func (m *Manager) PrepareStaging() error {
	if err := os.RemoveAll(m.CachedServerFolder()); err != nil {
		return fmt.Errorf("remove stale staging folder: %w", err)
	}

	if err := os.MkdirAll(m.CachedServerFolder(), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create staging folder: %w", err)
	}

	return nil
}

// ClearCache deletes the staging tree together with its marker.
func (m *Manager) ClearCache() error {
	if err := os.RemoveAll(m.CachedServerFolder()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	return nil
}

// Lock takes the cache lock without blocking.
func (m *Manager) Lock() error {
	if err := os.MkdirAll(m.root, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create cache folder %s: %w", m.root, err)
	}

	locked, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}

	if !locked {
		return ErrCacheLocked
	}

	return nil
}

// Unlock releases the cache lock and removes the lock file.
func (m *Manager) Unlock() error {
	// Only the process holding the lock may remove the file.
	if !m.lock.Locked() {
		return nil
	}

	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock cache: %w", err)
	}

	if err := os.Remove(m.lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}

	return nil
}

// Status walks the staging tree and reports its contents.
func (m *Manager) Status() (*Status, error) {
	status := &Status{Root: m.root}

	cached, err := m.cachedVersion()
	if err != nil {
		return nil, err
	}

	status.CachedVersion = cached

	err = filepath.WalkDir(m.CachedServerFolder(), func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.Type().IsRegular() || path == m.markerPath() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		status.StagedFiles++
		status.StagedBytes += info.Size()

		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("scan staging folder: %w", err)
	}

	return status, nil
}

// cachedVersion returns the marker content, or "" when there is no marker.
func (m *Manager) cachedVersion() (string, error) {
	contents, err := os.ReadFile(m.markerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("read cache marker: %w", err)
	}

	return strings.TrimSpace(string(contents)), nil
}

func (m *Manager) markerPath() string {
	return filepath.Join(m.CachedServerFolder(), MarkerFilename)
}
