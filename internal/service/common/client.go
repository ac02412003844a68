//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/imroc/req/v3"

	"github.com/oshokin/bds-updater/internal/version"
)

const (
	// DefaultRetryCount is the number of extra attempts on transport errors.
	DefaultRetryCount = 3
	// retryInterval is the pause between attempts.
	retryInterval = time.Second
)

var (
	// ErrBadHTTPStatus is returned when the server answers with a non-2xx status.
	ErrBadHTTPStatus = errors.New("unexpected http status")
	// errURLRequired is returned when an empty URL is requested.
	errURLRequired = errors.New("url must be provided")
)

// Client wraps an HTTP client tuned for large archive downloads.
type Client struct {
	// http is the underlying req client.
	http *req.Client

	// callTimeout bounds a whole request including the body; zero disables it.
	callTimeout time.Duration
	// retryCount is the number of extra attempts on transport errors.
	retryCount int
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the timeout of a single request; zero means no limit.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.callTimeout = timeout
		}
	}
}

// WithRetryCount sets how many times a request is retried on transport errors.
func WithRetryCount(count int) Option {
	return func(c *Client) {
		if count >= 0 {
			c.retryCount = count
		}
	}
}

// NewClient builds a download client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		retryCount: DefaultRetryCount,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.http = req.C().
		SetTimeout(client.callTimeout).
		SetCommonRetryCount(client.retryCount).
		SetCommonRetryFixedInterval(retryInterval).
		SetUserAgent(version.UserAgent())

	return client
}

// Get issues a GET request and returns the response with its body unread.
// Callers must close the body. Non-2xx answers are reported as
// ErrBadHTTPStatus naming the URL and the status.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, errURLRequired
	}

	resp, err := c.http.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	if !resp.IsSuccessState() {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", url, resp.Status, ErrBadHTTPStatus)
	}

	return resp.Response, nil
}
