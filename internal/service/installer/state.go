package installer

import "fmt"

// State is a stage of the install lifecycle.
type State int

const (
	// StateIdle is the state before Install runs.
	StateIdle State = iota
	// StateDownloading means the archive request is in flight.
	StateDownloading
	// StateExtracting means the archive body is being unpacked into staging.
	StateExtracting
	// StateReconciling means staged files are applied to the live tree.
	StateReconciling
	// StatePermissionFix means the server executable bit is being set.
	StatePermissionFix
	// StateCacheClear means the staging tree is being removed.
	StateCacheClear
	// StateDone means the install finished.
	StateDone
	// StateFailed means the install stopped with an error.
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDownloading:
		return "downloading"
	case StateExtracting:
		return "extracting"
	case StateReconciling:
		return "reconciling"
	case StatePermissionFix:
		return "permission-fix"
	case StateCacheClear:
		return "cache-clear"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
