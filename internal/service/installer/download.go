package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/krolaw/zipstream"

	"github.com/oshokin/bds-updater/internal/domain/release"
	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/progress"
	"github.com/oshokin/bds-updater/internal/repository/cache"
)

// defaultFileMode is used for archive entries without Unix permissions.
const defaultFileMode os.FileMode = 0o644

// downloadAndExtractServer streams the release archive into the staging tree.
// The body flows through the progress bar and the zip parser entry by entry;
// the archive is never held in memory or written to disk as a whole.
func (i *Installer) downloadAndExtractServer(ctx context.Context, version release.VersionInfo) error {
	i.setState(ctx, StateDownloading)

	if err := i.cache.PrepareStaging(); err != nil {
		return err
	}

	url := version.DownloadURL(i.baseURL, release.PlatformFor(i.goos))
	logger.InfoKV(ctx, "Downloading server archive", "url", url)

	response, err := i.downloader.Get(ctx, url)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	i.setState(ctx, StateExtracting)

	bar := progress.NewBar(i.progressOut, filepath.Base(url), response.ContentLength)
	defer bar.Stop()

	body := io.TeeReader(response.Body, bar)

	files, err := extractArchive(zipstream.NewReader(body), i.cache.CachedServerFolder())
	if err != nil {
		return err
	}

	// Read the central directory too so the byte count reaches the total.
	if _, err = io.Copy(io.Discard, body); err != nil {
		return fmt.Errorf("read archive tail: %w", err)
	}

	logger.InfoKV(ctx, "Archive extracted", "files", files, "bytes", bar.Current())

	return nil
}

// extractArchive writes every entry of archive below dest and returns the
// number of regular files written.
func extractArchive(archive *zipstream.Reader, dest string) (int, error) {
	var files int

	for {
		header, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}

		if err != nil {
			return files, fmt.Errorf("read archive entry: %w", err)
		}

		target, err := entryTarget(dest, header.Name)
		if err != nil {
			return files, err
		}

		if header.FileInfo().IsDir() || strings.HasSuffix(header.Name, "/") {
			if err = os.MkdirAll(target, cache.DefaultDirPermissions); err != nil {
				return files, fmt.Errorf("create folder %s: %w", header.Name, err)
			}

			if _, err = io.Copy(io.Discard, archive); err != nil {
				return files, fmt.Errorf("drain folder entry %s: %w", header.Name, err)
			}

			continue
		}

		mode := header.Mode().Perm()
		if mode == 0 {
			mode = defaultFileMode
		}

		if err = writeEntry(target, archive, mode); err != nil {
			return files, fmt.Errorf("extract %s: %w", header.Name, err)
		}

		files++
	}
}

// entryTarget resolves an archive entry name below dest, rejecting names that
// would land outside it.
func entryTarget(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" ||
		cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafeArchivePath)
	}

	return filepath.Join(dest, cleaned), nil
}

// writeEntry copies one entry body into path, creating parent folders.
func writeEntry(path string, body io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), cache.DefaultDirPermissions); err != nil {
		return err
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return err
	}

	if _, err = io.Copy(file, body); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}
