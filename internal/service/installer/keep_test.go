package installer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewKeepTable_NormalizesPaths converts slash paths to OS paths once.
func TestNewKeepTable_NormalizesPaths(t *testing.T) {
	t.Parallel()

	table, err := NewKeepTable(
		KeepEntry{Path: "config/default/../default/permissions.json", Policy: Keep()},
		KeepEntry{Path: " worlds/ ", Policy: Keep()},
	)
	require.NoError(t, err)

	entries := table.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, filepath.Join("config", "default", "permissions.json"), entries[0].Path)
	require.Equal(t, "worlds", entries[1].Path)
}

// TestNewKeepTable_RejectsInvalidEntries covers empty, escaping, absolute and incomplete entries.
func TestNewKeepTable_RejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry KeepEntry
	}{
		{name: "empty", entry: KeepEntry{Path: "  ", Policy: Keep()}},
		{name: "root", entry: KeepEntry{Path: ".", Policy: Keep()}},
		{name: "parent", entry: KeepEntry{Path: "../outside", Policy: Keep()}},
		{name: "absolute", entry: KeepEntry{Path: filepath.Join(t.TempDir(), "abs"), Policy: Keep()}},
		{name: "merge without function", entry: KeepEntry{Path: "a.json", Policy: Policy{Kind: PolicyMerge}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewKeepTable(tt.entry)
			require.ErrorIs(t, err, ErrInvalidKeepEntry)
		})
	}
}

// TestNewKeepTable_LaterEntryWins replaces duplicates in place.
func TestNewKeepTable_LaterEntryWins(t *testing.T) {
	t.Parallel()

	merged := MergeWith(func(string, string) ([]byte, error) { return nil, nil })

	table, err := NewKeepTable(
		KeepEntry{Path: "server.properties", Policy: Keep()},
		KeepEntry{Path: "./server.properties", Policy: merged},
	)
	require.NoError(t, err)
	require.Len(t, table.Entries(), 1)
	require.Equal(t, PolicyMerge, table.Entries()[0].Policy.Kind)
}

// TestKeepTable_LookupMostSpecific prefers the deepest matching entry and matches whole components.
func TestKeepTable_LookupMostSpecific(t *testing.T) {
	t.Parallel()

	merged := MergeWith(func(string, string) ([]byte, error) { return nil, nil })

	table, err := NewKeepTable(
		KeepEntry{Path: "worlds", Policy: Keep()},
		KeepEntry{Path: "worlds/main/world_behavior_packs.json", Policy: merged},
	)
	require.NoError(t, err)

	entry, ok := table.Lookup(filepath.Join("worlds", "main", "level.dat"))
	require.True(t, ok)
	require.Equal(t, PolicyKeep, entry.Policy.Kind)

	entry, ok = table.Lookup(filepath.Join("worlds", "main", "world_behavior_packs.json"))
	require.True(t, ok)
	require.Equal(t, PolicyMerge, entry.Policy.Kind)

	_, ok = table.Lookup("worlds_backup.txt")
	require.False(t, ok)

	_, ok = table.Lookup("bedrock_server")
	require.False(t, ok)
}

// TestKeepTable_Classify maps policies and live presence to actions.
func TestKeepTable_Classify(t *testing.T) {
	t.Parallel()

	table := DefaultKeepTable()

	tests := []struct {
		path       string
		liveExists bool
		want       Classification
	}{
		{path: "bedrock_server", liveExists: true, want: ClassReplace},
		{path: "allowlist.json", liveExists: true, want: ClassKeep},
		{path: "allowlist.json", liveExists: false, want: ClassReplace},
		{path: "server.properties", liveExists: true, want: ClassMerge},
		{path: "server.properties", liveExists: false, want: ClassReplace},
		{path: filepath.Join("config", "default", "permissions.json"), liveExists: true, want: ClassMerge},
		{path: filepath.Join("config", "other", "permissions.json"), liveExists: true, want: ClassReplace},
	}

	for _, tt := range tests {
		got, _ := table.Classify(tt.path, tt.liveExists)
		require.Equal(t, tt.want, got, "%s (live exists: %v)", tt.path, tt.liveExists)
	}
}

// TestStrings covers the names used in logs and plans.
func TestStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "REPLACE", ClassReplace.String())
	require.Equal(t, "KEEP", ClassKeep.String())
	require.Equal(t, "MERGE", ClassMerge.String())
	require.Equal(t, "keep", PolicyKeep.String())
	require.Equal(t, "merge", PolicyMerge.String())
	require.Equal(t, "permission-fix", StatePermissionFix.String())
	require.Equal(t, "failed", StateFailed.String())
	require.Equal(t, "state(42)", State(42).String())
}
