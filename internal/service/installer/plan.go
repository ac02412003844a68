package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/repository/cache"
)

// printPlan classifies every staged file and prints what a real install
// would do, including a unified diff for each merge. Nothing is written.
func (i *Installer) printPlan(ctx context.Context) error {
	stagingRoot := i.cache.CachedServerFolder()
	liveRoot := i.cache.ServerFolder()
	counts := make(map[Classification]int)

	err := filepath.WalkDir(stagingRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return err
		}

		if relPath == cache.MarkerFilename {
			return nil
		}

		livePath := filepath.Join(liveRoot, relPath)

		_, statErr := os.Lstat(livePath)
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("stat live file: %w", statErr)
		}

		class, keepEntry := i.keepTable.Classify(relPath, statErr == nil)
		counts[class]++

		_, _ = fmt.Fprintf(i.planOut, "%-7s %s\n", class, filepath.ToSlash(relPath))

		if class != ClassMerge {
			return nil
		}

		return i.printMergeDiff(relPath, path, livePath, keepEntry)
	})
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}

	_, _ = fmt.Fprintf(i.planOut, "%d to replace, %d to keep, %d to merge\n",
		counts[ClassReplace], counts[ClassKeep], counts[ClassMerge])

	logger.Info(ctx, "Dry run finished, the live tree was left untouched")

	return nil
}

// printMergeDiff prints the change a merge would make to the live file.
func (i *Installer) printMergeDiff(relPath, stagedPath, livePath string, entry KeepEntry) error {
	merged, err := entry.Policy.Merge(stagedPath, i.cache.ServerFolder())
	if err != nil {
		return fmt.Errorf("merge %s: %w", relPath, err)
	}

	current, err := os.ReadFile(filepath.Clean(livePath))
	if err != nil {
		return err
	}

	name := filepath.ToSlash(relPath)

	diff := udiff.Unified("current/"+name, "merged/"+name, string(current), string(merged))
	if diff == "" {
		_, _ = fmt.Fprintln(i.planOut, "        (no changes)")
		return nil
	}

	_, _ = fmt.Fprint(i.planOut, diff)

	return nil
}
