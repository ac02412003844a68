// Package progress renders download progress and per-file reconciliation status.
//
// Bar counts bytes written through it and redraws a single terminal line;
// on non-interactive outputs it stays silent until Stop prints one summary
// line. Tracker follows every file operation from added to completed or
// errored and prints a closing summary.
package progress
