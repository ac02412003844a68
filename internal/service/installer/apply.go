package installer

import (
	"bytes"
	"crypto"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/bds-updater/internal/repository/cache"
)

// checksumFunction verifies every write against the bytes we meant to write.
const checksumFunction = crypto.SHA512

// replaceFile copies the staged file over the live one, keeping the staged mode.
func replaceFile(stagedPath, livePath string) error {
	info, err := os.Stat(stagedPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(stagedPath))
	if err != nil {
		return err
	}

	return applyFile(livePath, data, info.Mode().Perm())
}

// writeMerged writes merged content over the live file, keeping the live mode.
func writeMerged(livePath string, data []byte) error {
	info, err := os.Stat(livePath)
	if err != nil {
		return err
	}

	return applyFile(livePath, data, info.Mode().Perm())
}

// applyFile atomically swaps path for data with go-update, creating the
// target and its parent folders when they do not exist yet.
func applyFile(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), cache.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create parent folder: %w", err)
	}

	if err := ensureTarget(path, mode); err != nil {
		return err
	}

	checksum := sha512.Sum512(data)

	err := goupdate.Apply(bytes.NewReader(data), goupdate.Options{
		TargetPath: path,
		TargetMode: mode,
		Checksum:   checksum[:],
		Hash:       checksumFunction,
	})
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	return nil
}

// ensureTarget creates an empty target when path is missing and refuses
// anything that is not a file, so a live folder is never swapped away.
func ensureTarget(path string, mode os.FileMode) error {
	info, err := os.Lstat(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		file, createErr := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY, mode)
		if createErr != nil {
			return createErr
		}

		return file.Close()
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("%s is a directory: %w", path, ErrLiveNotFile)
	case !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0:
		return fmt.Errorf("%s has mode %s: %w", path, info.Mode().Type(), ErrLiveNotFile)
	default:
		return nil
	}
}
