package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and rejected values.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.True(t, filepath.IsAbs(cfg.ServerFolder))
	require.Equal(t, DefaultDownloadBaseURL, cfg.DownloadBaseURL)
	require.Equal(t, DefaultConcurrency(), cfg.Concurrency)
	require.Empty(t, cfg.CacheFolder)

	require.Error(t, Validate(&Config{DownloadBaseURL: "not a url"}))
	require.Error(t, Validate(&Config{RetryCount: -1}))
	require.Error(t, Validate(&Config{Concurrency: -2}))
	require.Error(t, Validate(&Config{DownloadTimeout: -time.Second}))
	require.Error(t, Validate(&Config{LogLevel: "chatty"}))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerFolder:    filepath.Join(dir, "bedrock"),
		DownloadBaseURL: "https://mirror.local/bds",
		DownloadTimeout: 10 * time.Minute,
		RetryCount:      2,
		Concurrency:     4,
		LogLevel:        "debug",
		KeepPaths:       []string{"worlds"},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

// TestLoadOptional verifies a missing file yields defaults while Load reports it.
func TestLoadOptional(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Load(missing)
	require.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOptional(missing)
	require.NoError(t, err)
	require.Equal(t, DefaultDownloadBaseURL, cfg.DownloadBaseURL)
}

// TestEnvironmentOverrides checks BDS_UPDATER_* variables win over the file.
func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	require.NoError(t, os.WriteFile(path, []byte("retry_count: 1\nconcurrency: 3\n"), DefaultFilePermissions))

	t.Setenv(EnvPrefix+"RETRY_COUNT", "5")
	t.Setenv(EnvPrefix+"KEEP_PATHS", "worlds,behavior_packs")
	t.Setenv(EnvPrefix+"DOWNLOAD_TIMEOUT", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.RetryCount)
	require.Equal(t, 3, cfg.Concurrency)
	require.Equal(t, []string{"worlds", "behavior_packs"}, cfg.KeepPaths)
	require.Equal(t, 90*time.Second, cfg.DownloadTimeout)
}
