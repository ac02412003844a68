package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/bds-updater/internal/logger"
	"github.com/oshokin/bds-updater/internal/progress"
	"github.com/oshokin/bds-updater/internal/repository/cache"
)

// fileTask is one classified staged file.
type fileTask struct {
	// relPath is relative to both roots.
	relPath string
	// stagedPath is the file in the staging tree.
	stagedPath string
	// livePath is the file in the live tree.
	livePath string
	// class is the action to take.
	class Classification
	// entry is the keep entry that matched, if any.
	entry KeepEntry
}

// reconciler walks the staging tree and applies it to the live tree.
type reconciler struct {
	stagingRoot string
	liveRoot    string
	keepTable   *KeepTable
	tracker     *progress.Tracker
	concurrency int

	mu       sync.Mutex
	failures []FileFailure
}

// updateFiles reconciles the whole staging tree and returns *UpdateError
// when any file failed.
func (i *Installer) updateFiles(ctx context.Context) error {
	tracker := progress.NewTracker(i.progressOut, i.verbose)
	defer tracker.Finish()

	r := &reconciler{
		stagingRoot: i.cache.CachedServerFolder(),
		liveRoot:    i.cache.ServerFolder(),
		keepTable:   i.keepTable,
		tracker:     tracker,
		concurrency: i.concurrency,
	}

	if err := os.MkdirAll(r.liveRoot, cache.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create server folder: %w", err)
	}

	r.scanDir(ctx, "")

	summary := tracker.Summary()
	logger.InfoKV(ctx, "Reconciliation finished",
		"replaced", summary.Completed[ClassReplace.String()],
		"kept", summary.Completed[ClassKeep.String()],
		"merged", summary.Completed[ClassMerge.String()],
		"failed", summary.Failed)

	if len(r.failures) > 0 {
		return &UpdateError{Failures: r.failures}
	}

	return nil
}

// scanDir reconciles one staging directory. Subdirectories are walked in
// place; the directory's REPLACE and MERGE tasks run concurrently and are
// joined before it returns.
func (r *reconciler) scanDir(ctx context.Context, relDir string) {
	entries, err := os.ReadDir(filepath.Join(r.stagingRoot, relDir))
	if err != nil {
		r.fail(dirName(relDir), opScan, err)
		return
	}

	group := new(errgroup.Group)
	group.SetLimit(r.concurrency)

	for _, entry := range entries {
		relPath := filepath.Join(relDir, entry.Name())

		if relDir == "" && entry.Name() == cache.MarkerFilename {
			continue
		}

		if entry.IsDir() {
			r.scanDir(ctx, relPath)
			continue
		}

		task, err := r.classify(relPath)
		if err != nil {
			r.tracker.Add(relPath, ClassReplace.String())
			r.tracker.Fail(relPath, err)
			r.fail(relPath, ClassReplace.String(), err)

			continue
		}

		r.tracker.Add(relPath, task.class.String())
		logger.DebugKV(ctx, "Classified file", "path", relPath, "action", task.class.String())

		if task.class == ClassKeep {
			r.tracker.Complete(relPath)
			continue
		}

		group.Go(func() error {
			r.run(task)

			// Failures are collected so the walk continues.
			return nil
		})
	}

	_ = group.Wait()
}

// classify picks the action for relPath.
func (r *reconciler) classify(relPath string) (fileTask, error) {
	task := fileTask{
		relPath:    relPath,
		stagedPath: filepath.Join(r.stagingRoot, relPath),
		livePath:   filepath.Join(r.liveRoot, relPath),
	}

	liveExists := true

	if _, err := os.Lstat(task.livePath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return task, fmt.Errorf("stat live file: %w", err)
		}

		liveExists = false
	}

	task.class, task.entry = r.keepTable.Classify(relPath, liveExists)

	return task, nil
}

// run executes a REPLACE or MERGE task and reports it to the tracker.
func (r *reconciler) run(task fileTask) {
	r.tracker.Start(task.relPath)

	var err error

	switch task.class {
	case ClassReplace:
		err = replaceFile(task.stagedPath, task.livePath)
	case ClassMerge:
		var merged []byte

		merged, err = task.entry.Policy.Merge(task.stagedPath, r.liveRoot)
		if err == nil {
			err = writeMerged(task.livePath, merged)
		}
	case ClassKeep:
	}

	if err != nil {
		r.tracker.Fail(task.relPath, err)
		r.fail(task.relPath, task.class.String(), err)

		return
	}

	r.tracker.Complete(task.relPath)
}

func (r *reconciler) fail(relPath, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, FileFailure{Path: relPath, Op: op, Err: err})
}

func dirName(relDir string) string {
	if relDir == "" {
		return "."
	}

	return relDir
}
