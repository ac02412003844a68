package installer

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/bds-updater/internal/repository/cache"
	"github.com/oshokin/bds-updater/internal/service/common"
)

const testVersion = "1.21.44.01"

// archiveFile is one entry of a generated archive; names ending in "/" are folders.
type archiveFile struct {
	name string
	body string
}

// buildArchive creates a deflate-compressed zip archive in memory.
func buildArchive(t *testing.T, files ...archiveFile) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, file := range files {
		w, err := zw.Create(file.name)
		require.NoError(t, err)

		if strings.HasSuffix(file.name, "/") {
			continue
		}

		_, err = w.Write([]byte(file.body))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// archiveServer serves one archive and records requested paths.
type archiveServer struct {
	*httptest.Server

	requests atomic.Int32

	mu    sync.Mutex
	paths []string
}

// serveArchive starts a server answering every request with archive.
func serveArchive(t *testing.T, archive []byte) *archiveServer {
	t.Helper()

	server := new(archiveServer)
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.requests.Add(1)

		server.mu.Lock()
		server.paths = append(server.paths, r.URL.Path)
		server.mu.Unlock()

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)

	return server
}

// requestedPaths returns the URL paths seen so far.
func (s *archiveServer) requestedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.paths...)
}

// failingDownloader fails the test when a download is attempted.
type failingDownloader struct {
	t *testing.T
}

func (d failingDownloader) Get(_ context.Context, url string) (*http.Response, error) {
	d.t.Errorf("unexpected download of %s", url)

	return nil, os.ErrInvalid
}

// testEnv bundles the folders of one install under test.
type testEnv struct {
	live  string
	cache *cache.Manager
}

// newTestEnv creates an empty live folder and cache root.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	live := filepath.Join(dir, "server")
	require.NoError(t, os.MkdirAll(live, 0o755))

	return &testEnv{
		live:  live,
		cache: cache.NewManager(filepath.Join(dir, "cache"), live),
	}
}

// installer builds an installer downloading from baseURL.
func (e *testEnv) installer(baseURL string, opts ...Option) *Installer {
	defaults := []Option{
		WithBaseURL(baseURL),
		WithPlatform("linux"),
		WithProgressOutput(&bytes.Buffer{}, true),
		WithConcurrency(4),
	}

	return New(e.cache, common.NewClient(common.WithRetryCount(0)), append(defaults, opts...)...)
}

// writeLive creates a file in the live folder.
func (e *testEnv) writeLive(t *testing.T, relPath, body string) {
	t.Helper()

	path := filepath.Join(e.live, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// readLive returns the content of a live file.
func (e *testEnv) readLive(t *testing.T, relPath string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(e.live, filepath.FromSlash(relPath)))
	require.NoError(t, err)

	return string(data)
}

// stagingExists reports whether the staging tree is still on disk.
func (e *testEnv) stagingExists(t *testing.T) bool {
	t.Helper()

	_, err := os.Stat(e.cache.CachedServerFolder())
	if os.IsNotExist(err) {
		return false
	}

	require.NoError(t, err)

	return true
}

// standardArchive is a small release with every kind of file.
func standardArchive(t *testing.T) []byte {
	t.Helper()

	return buildArchive(t,
		archiveFile{name: "bedrock_server", body: "new-binary"},
		archiveFile{name: "server.properties", body: "a=9\nc=3\n"},
		archiveFile{name: "permissions.json", body: "[]\n"},
		archiveFile{name: "allowlist.json", body: "[]\n"},
		archiveFile{name: "config/"},
		archiveFile{name: "config/default/permissions.json", body: `{"allowed_modules": ["@minecraft/server"]}`},
		archiveFile{name: "behavior_packs/vanilla/manifest.json", body: `{"format_version": 2}`},
	)
}
