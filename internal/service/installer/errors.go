package installer

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrServerRunning is returned when a bedrock_server process is alive and stopping it was not requested.
	ErrServerRunning = errors.New("bedrock server is running")
	// ErrUnsafeArchivePath is returned for archive entries escaping the staging folder.
	ErrUnsafeArchivePath = errors.New("archive entry escapes the staging folder")
	// ErrLiveNotFile is returned when a staged file would overwrite a live folder or special file.
	ErrLiveNotFile = errors.New("live path is not a regular file")
)

// opScan marks failures to list a staging directory.
const opScan = "SCAN"

// FileFailure is one path that could not be reconciled.
type FileFailure struct {
	// Path is relative to the server root.
	Path string
	// Op is REPLACE, MERGE or SCAN.
	Op string
	// Err is the cause.
	Err error
}

// Error implements error.
func (f FileFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.Path, f.Err)
}

// Unwrap returns the cause.
func (f FileFailure) Unwrap() error {
	return f.Err
}

// UpdateError aggregates every per-file failure of one reconciliation.
type UpdateError struct {
	// Failures lists the failing paths in the order they were reported.
	Failures []FileFailure
}

// Error implements error.
func (e *UpdateError) Error() string {
	return fmt.Sprintf("update files: %d failed: %v", len(e.Failures), multierr.Combine(e.errors()...))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *UpdateError) Unwrap() []error {
	return e.errors()
}

// Paths returns the failing paths.
func (e *UpdateError) Paths() []string {
	paths := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		paths = append(paths, failure.Path)
	}

	return paths
}

func (e *UpdateError) errors() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure)
	}

	return errs
}
