// Package installer installs or upgrades a Bedrock dedicated server in place.
//
// An install downloads the release archive and extracts it while streaming
// into a staging tree, marks the staging tree as complete, then reconciles
// every staged file against the live server folder. A KeepTable decides per
// path whether the staged file replaces the live one, the live file is kept
// untouched, or both are merged. Per-file failures are collected into one
// *UpdateError; the cache is only cleared after a fully successful run so a
// retry can reuse the archive.
package installer
