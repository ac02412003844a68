//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestClient_Get streams the body of a successful response.
func TestClient_Get(t *testing.T) {
	t.Parallel()

	userAgents := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents <- r.UserAgent()

		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithRetryCount(0), WithCallTimeout(5*time.Second))

	resp, err := client.Get(context.Background(), server.URL+"/archive.zip")
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.EqualValues(t, 5, resp.ContentLength)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
	require.True(t, strings.HasPrefix(<-userAgents, "bds-updater/"))
}

// TestClient_GetBadStatus names the URL and the status in the error.
func TestClient_GetBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	url := server.URL + "/bin-linux/bedrock-server-0.0.0.zip"

	resp, err := NewClient(WithRetryCount(0)).Get(context.Background(), url)
	require.ErrorIs(t, err, ErrBadHTTPStatus)
	require.ErrorContains(t, err, url)
	require.ErrorContains(t, err, "404")
	require.Nil(t, resp)
}

// TestClient_GetValidatesURL rejects an empty URL.
func TestClient_GetValidatesURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient().Get(context.Background(), "")
	require.Error(t, err)
}

// TestClient_GetCanceled honours context cancellation.
func TestClient_GetCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithRetryCount(0)).Get(ctx, server.URL)
	require.Error(t, err)
}

// TestOptions_IgnoreNegativeValues keeps defaults for invalid option values.
func TestOptions_IgnoreNegativeValues(t *testing.T) {
	t.Parallel()

	client := NewClient(WithRetryCount(-1), WithCallTimeout(-time.Second))
	require.Equal(t, DefaultRetryCount, client.retryCount)
	require.Zero(t, client.callTimeout)
}
