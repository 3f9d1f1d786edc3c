// Package remote talks to the progress/stats API: two JSON resources,
// each read with GET and upserted with POST. Every failure is wrapped
// in *ErrUnavailable so callers can fall back to local storage without
// inspecting transport details.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnavailable indicates the remote store could not serve a request.
// The caller recovers via the local fallback; this error is never
// surfaced to the end user as a failure of the action itself.
type ErrUnavailable struct {
	Resource string
	Err      error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("remote store unavailable for %s: %v", e.Resource, e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// Client accesses the remote progress/stats store.
type Client struct {
	baseURL     string
	http        *http.Client
	maxAttempts int
	backoff     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry overrides the bounded retry policy.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.backoff = backoff
	}
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 5 * time.Second},
		maxAttempts: 2,
		backoff:     250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a Client from DEFENDIQ_API_URL, or nil if
// the variable is unset (remote tier disabled, local-only operation).
func NewClientFromEnv() *Client {
	base := os.Getenv("DEFENDIQ_API_URL")
	if base == "" {
		return nil
	}
	return NewClient(base)
}

// Fetch reads a resource document. Returns (nil, nil) when the server
// has no document yet (404).
func (c *Client) Fetch(ctx context.Context, resource string) ([]byte, error) {
	var data []byte
	err := c.attempt(ctx, resource, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(resource), nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch resp.StatusCode {
		case http.StatusOK:
			data, err = io.ReadAll(resp.Body)
			return err
		case http.StatusNotFound:
			data = nil
			return nil
		default:
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Upsert writes a resource document.
func (c *Client) Upsert(ctx context.Context, resource string, data []byte) error {
	return c.attempt(ctx, resource, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(resource), bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	})
}

// attempt runs fn under the bounded fixed-backoff retry policy and
// wraps the final failure in *ErrUnavailable.
func (c *Client) attempt(ctx context.Context, resource string, fn func() error) error {
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &ErrUnavailable{Resource: resource, Err: ctx.Err()}
			case <-time.After(c.backoff):
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return &ErrUnavailable{Resource: resource, Err: lastErr}
}

func (c *Client) url(resource string) string {
	return c.baseURL + "/" + resource
}
