package release

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewVersionInfo checks accepted and rejected version strings.
func TestNewVersionInfo(t *testing.T) {
	t.Parallel()

	v, err := NewVersionInfo(" 1.21.44.01 ", true)
	require.NoError(t, err)
	require.Equal(t, VersionInfo{Version: "1.21.44.01", IsPreview: true}, v)
	require.Equal(t, "preview", v.Channel())
	require.Equal(t, "1.21.44.01 (preview)", v.String())

	for _, bad := range []string{"", "  ", "../1.0", "1.0/2", `1.0\2`, "1..0", ".1"} {
		_, err = NewVersionInfo(bad, false)
		require.ErrorIs(t, err, ErrInvalidVersion, bad)
	}
}

// TestDownloadURL verifies the archive URL layout for both platforms and channels.
func TestDownloadURL(t *testing.T) {
	t.Parallel()

	stable := VersionInfo{Version: "1.21.44.01"}
	preview := VersionInfo{Version: "1.21.50.20", IsPreview: true}

	require.Equal(t,
		"https://host/bds/bin-linux/bedrock-server-1.21.44.01.zip",
		stable.DownloadURL("https://host/bds/", PlatformLinux))
	require.Equal(t,
		"https://host/bds/bin-win-preview/bedrock-server-1.21.50.20.zip",
		preview.DownloadURL("https://host/bds", PlatformWindows))
}

// TestPlatformHelpers covers GOOS to platform and executable mapping.
func TestPlatformHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, PlatformWindows, PlatformFor("windows"))
	require.Equal(t, PlatformLinux, PlatformFor("linux"))
	require.Equal(t, PlatformLinux, PlatformFor("darwin"))
	require.Equal(t, "bedrock_server.exe", ExecutableName("windows"))
	require.Equal(t, "bedrock_server", ExecutableName("linux"))
	require.Equal(t, PlatformFor(runtime.GOOS), CurrentPlatform())
}
