package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMergePermissionsJSON_UnionOfModules keeps custom entries and adds new defaults once.
func TestMergePermissionsJSON_UnionOfModules(t *testing.T) {
	t.Parallel()

	live := []byte(`{
  "allowed_modules": [
    "@minecraft/server",
    "@minecraft/server-net"
  ]
}`)
	staged := []byte(`{
  // Modules the default scripting sandbox may import.
  "allowed_modules": [
    "@minecraft/server",
    "@minecraft/server-ui",
  ],
}`)

	got, err := MergePermissionsJSON(live, staged)
	require.NoError(t, err)
	require.JSONEq(t, `{
  "allowed_modules": ["@minecraft/server", "@minecraft/server-net", "@minecraft/server-ui"]
}`, string(got))
}

// TestMergePermissionsJSON_ObjectEntries matches list objects by their identifying field.
func TestMergePermissionsJSON_ObjectEntries(t *testing.T) {
	t.Parallel()

	live := []byte(`[
  {"name": "Steve", "permission": "operator", "xuid": "1"},
  {"name": "Alex", "permission": "member"}
]`)
	staged := []byte(`[
  {"name": "Steve", "permission": "visitor"},
  {"name": "Default", "permission": "member"},
  {"permission": "visitor"}
]`)

	got, err := MergePermissionsJSON(live, staged)
	require.NoError(t, err)
	require.JSONEq(t, `[
  {"name": "Steve", "permission": "operator", "xuid": "1"},
  {"name": "Alex", "permission": "member"},
  {"name": "Default", "permission": "member"},
  {"permission": "visitor"}
]`, string(got))
}

// TestMergePermissionsJSON_NestedObjects merges nested keys and keeps live scalars.
func TestMergePermissionsJSON_NestedObjects(t *testing.T) {
	t.Parallel()

	live := []byte(`{"limits": {"max": 5}, "custom": true}`)
	staged := []byte(`{"limits": {"max": 10, "min": 1}, "version": 2}`)

	got, err := MergePermissionsJSON(live, staged)
	require.NoError(t, err)
	require.JSONEq(t, `{"limits": {"max": 5, "min": 1}, "custom": true, "version": 2}`, string(got))
}

// TestMergePermissionsJSON_Invalid reports which side failed to parse.
func TestMergePermissionsJSON_Invalid(t *testing.T) {
	t.Parallel()

	_, err := MergePermissionsJSON([]byte(`{`), []byte(`{}`))
	require.ErrorContains(t, err, "current document")

	_, err = MergePermissionsJSON([]byte(`{}`), []byte(`[1,`))
	require.ErrorContains(t, err, "new document")
}

// TestPermissionsJSONFunc resolves the live file relative to the server root.
func TestPermissionsJSONFunc(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rel := filepath.Join("config", "default", "permissions.json")
	staged := filepath.Join(dir, "staging", rel)
	liveRoot := filepath.Join(dir, "live")

	require.NoError(t, os.MkdirAll(filepath.Dir(staged), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(liveRoot, "config", "default"), 0o755))
	require.NoError(t, os.WriteFile(staged, []byte(`{"allowed_modules": ["a", "b"]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(liveRoot, rel), []byte(`{"allowed_modules": ["c"]}`), 0o644))

	got, err := PermissionsJSON("config/default/permissions.json")(staged, liveRoot)
	require.NoError(t, err)
	require.JSONEq(t, `{"allowed_modules": ["c", "a", "b"]}`, string(got))
}
