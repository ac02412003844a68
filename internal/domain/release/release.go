package release

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// Platform is the archive flavour published for an operating system.
type Platform string

const (
	// PlatformWindows selects the bin-win archives.
	PlatformWindows Platform = "win"
	// PlatformLinux selects the bin-linux archives.
	PlatformLinux Platform = "linux"

	// executableBaseName is the server binary shipped in every archive.
	executableBaseName = "bedrock_server"
)

var (
	// ErrInvalidVersion is returned for empty or malformed version strings.
	ErrInvalidVersion = errors.New("invalid server version")

	versionPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z.\-]*$`)
)

// VersionInfo identifies the release to install. It is immutable once built.
type VersionInfo struct {
	// Version is the dotted release number, e.g. 1.21.44.01.
	Version string
	// IsPreview selects the preview channel archives.
	IsPreview bool
}

// NewVersionInfo validates the version string and builds a VersionInfo.
func NewVersionInfo(version string, isPreview bool) (VersionInfo, error) {
	version = strings.TrimSpace(version)
	if !versionPattern.MatchString(version) || strings.Contains(version, "..") {
		return VersionInfo{}, fmt.Errorf("%q: %w", version, ErrInvalidVersion)
	}

	return VersionInfo{
		Version:   version,
		IsPreview: isPreview,
	}, nil
}

// Channel returns "preview" or "stable".
func (v VersionInfo) Channel() string {
	if v.IsPreview {
		return "preview"
	}

	return "stable"
}

// String renders the version with its channel for log output.
func (v VersionInfo) String() string {
	return v.Version + " (" + v.Channel() + ")"
}

// DownloadURL builds <base>/bin-<platform>[-preview]/bedrock-server-<version>.zip.
func (v VersionInfo) DownloadURL(baseURL string, platform Platform) string {
	folder := "bin-" + string(platform)
	if v.IsPreview {
		folder += "-preview"
	}

	return strings.TrimRight(baseURL, "/") + "/" + folder + "/bedrock-server-" + v.Version + ".zip"
}

// PlatformFor maps a GOOS value to the archive platform.
func PlatformFor(goos string) Platform {
	if goos == "windows" {
		return PlatformWindows
	}

	return PlatformLinux
}

// CurrentPlatform returns the archive platform for the running OS.
func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// ExecutableName returns the server binary name for a GOOS value.
func ExecutableName(goos string) string {
	if goos == "windows" {
		return executableBaseName + ".exe"
	}

	return executableBaseName
}
