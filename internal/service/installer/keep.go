package installer

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oshokin/bds-updater/internal/merge"
)

// PolicyKind tells how a matched live path is treated.
type PolicyKind int

const (
	// PolicyKeep leaves the live file untouched.
	PolicyKeep PolicyKind = iota
	// PolicyMerge writes the result of a merge function over the live file.
	PolicyMerge
)

// String returns the policy name.
func (k PolicyKind) String() string {
	switch k {
	case PolicyKeep:
		return "keep"
	case PolicyMerge:
		return "merge"
	default:
		return fmt.Sprintf("policy(%d)", int(k))
	}
}

// Policy is the treatment of a kept path. Merge is set only for PolicyMerge.
type Policy struct {
	// Kind selects keep or merge.
	Kind PolicyKind
	// Merge produces the new live content for PolicyMerge.
	Merge merge.Func
}

// Keep returns a policy that preserves the live file.
func Keep() Policy {
	return Policy{Kind: PolicyKeep}
}

// MergeWith returns a policy that merges with fn.
func MergeWith(fn merge.Func) Policy {
	return Policy{Kind: PolicyMerge, Merge: fn}
}

// KeepEntry binds a server-relative path to a policy. A directory path
// covers every path beneath it.
type KeepEntry struct {
	// Path is relative to the server root, with forward or OS separators.
	Path string
	// Policy is applied to matching files.
	Policy Policy
}

// Classification is the action chosen for one staged file.
type Classification int

const (
	// ClassReplace copies the staged file over the live one.
	ClassReplace Classification = iota
	// ClassKeep leaves the live file as it is.
	ClassKeep
	// ClassMerge merges the staged file into the live one.
	ClassMerge
)

// String returns the upper-case action name.
func (c Classification) String() string {
	switch c {
	case ClassReplace:
		return "REPLACE"
	case ClassKeep:
		return "KEEP"
	case ClassMerge:
		return "MERGE"
	default:
		return fmt.Sprintf("CLASS(%d)", int(c))
	}
}

// ErrInvalidKeepEntry is returned by NewKeepTable for unusable entries.
var ErrInvalidKeepEntry = errors.New("invalid keep entry")

// KeepTable is an ordered, OS-normalized set of keep entries.
type KeepTable struct {
	entries []KeepEntry
}

// NewKeepTable validates entries and normalizes their paths once. A later
// entry for the same path replaces an earlier one.
func NewKeepTable(entries ...KeepEntry) (*KeepTable, error) {
	table := &KeepTable{entries: make([]KeepEntry, 0, len(entries))}
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		normalized, err := normalizeKeepPath(entry.Path)
		if err != nil {
			return nil, err
		}

		if entry.Policy.Kind == PolicyMerge && entry.Policy.Merge == nil {
			return nil, fmt.Errorf("%s: merge policy without merge function: %w", entry.Path, ErrInvalidKeepEntry)
		}

		entry.Path = normalized

		key := pathKey(normalized)
		if i, ok := index[key]; ok {
			table.entries[i] = entry
			continue
		}

		index[key] = len(table.entries)
		table.entries = append(table.entries, entry)
	}

	return table, nil
}

// DefaultKeepEntries returns the operator-owned files of a Bedrock server.
func DefaultKeepEntries() []KeepEntry {
	return []KeepEntry{
		{Path: "allowlist.json", Policy: Keep()},
		{Path: "permissions.json", Policy: Keep()},
		{Path: "whitelist.json", Policy: Keep()},
		{Path: "server.properties", Policy: MergeWith(merge.ServerProperties("server.properties"))},
		{
			Path:   "config/default/permissions.json",
			Policy: MergeWith(merge.PermissionsJSON("config/default/permissions.json")),
		},
	}
}

// DefaultKeepTable returns the table built from DefaultKeepEntries.
func DefaultKeepTable() *KeepTable {
	table, err := NewKeepTable(DefaultKeepEntries()...)
	if err != nil {
		panic(err) // Default entries are static and valid.
	}

	return table
}

// KeepPaths turns configured paths into keep entries.
func KeepPaths(paths []string) []KeepEntry {
	entries := make([]KeepEntry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, KeepEntry{Path: path, Policy: Keep()})
	}

	return entries
}

// Entries returns a copy of the normalized entries.
func (t *KeepTable) Entries() []KeepEntry {
	return append([]KeepEntry(nil), t.entries...)
}

// Lookup returns the most specific entry governing relPath.
func (t *KeepTable) Lookup(relPath string) (KeepEntry, bool) {
	if t == nil {
		return KeepEntry{}, false
	}

	key := pathKey(filepath.Clean(relPath))

	var (
		best  KeepEntry
		found bool
	)

	for _, entry := range t.entries {
		entryKey := pathKey(entry.Path)
		if key != entryKey && !strings.HasPrefix(key, entryKey+string(filepath.Separator)) {
			continue
		}

		if !found || len(entry.Path) > len(best.Path) {
			best, found = entry, true
		}
	}

	return best, found
}

// Classify decides the action for a staged file at relPath given whether
// its live counterpart exists.
func (t *KeepTable) Classify(relPath string, liveExists bool) (Classification, KeepEntry) {
	entry, ok := t.Lookup(relPath)
	if !ok || !liveExists {
		return ClassReplace, entry
	}

	if entry.Policy.Kind == PolicyMerge {
		return ClassMerge, entry
	}

	return ClassKeep, entry
}

// normalizeKeepPath converts path to a clean, relative OS path.
func normalizeKeepPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidKeepEntry)
	}

	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" {
		return "", fmt.Errorf("%s: absolute path: %w", path, ErrInvalidKeepEntry)
	}

	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: path outside the server folder: %w", path, ErrInvalidKeepEntry)
	}

	return cleaned, nil
}

// pathKey folds case on Windows where file names are case-insensitive.
func pathKey(path string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(path)
	}

	return path
}
