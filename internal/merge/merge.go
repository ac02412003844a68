package merge

import (
	"fmt"
	"os"
	"path/filepath"
)

// Func merges the staged (new release) file with its live counterpart found
// under liveRoot and returns the bytes that should replace the live file.
type Func func(stagedPath, liveRoot string) ([]byte, error)

// ServerProperties returns a Func merging the server.properties file at
// relPath (relative to the server root).
func ServerProperties(relPath string) Func {
	return bind(relPath, func(live, staged []byte) ([]byte, error) {
		return MergeServerProperties(live, staged), nil
	})
}

// PermissionsJSON returns a Func merging the permissions JSON file at relPath.
func PermissionsJSON(relPath string) Func {
	return bind(relPath, MergePermissionsJSON)
}

// bind reads both sides of relPath and hands them to merge.
func bind(relPath string, merge func(live, staged []byte) ([]byte, error)) Func {
	relPath = filepath.Clean(filepath.FromSlash(relPath))

	return func(stagedPath, liveRoot string) ([]byte, error) {
		staged, err := os.ReadFile(filepath.Clean(stagedPath))
		if err != nil {
			return nil, fmt.Errorf("read new %s: %w", relPath, err)
		}

		live, err := os.ReadFile(filepath.Join(liveRoot, relPath))
		if err != nil {
			return nil, fmt.Errorf("read current %s: %w", relPath, err)
		}

		merged, err := merge(live, staged)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", relPath, err)
		}

		return merged, nil
	}
}
