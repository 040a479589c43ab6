// Package fetch is the HTTP layer that retrieves target response bodies.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize caps how much of a response is accepted. Metric sources are
// small; anything larger is a misconfigured target and fails the fetch
// rather than feeding a truncated body to the extractors.
const maxBodySize = 16 << 20

// Client wraps a shared http.Client with the exporter's request defaults.
// The timeout applies per fetch and bounds how long a single target cycle
// can occupy the network.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

// NewClient builds the fetch client. The version is advertised in the
// default User-Agent, which targets may override via their header map.
func NewClient(timeout time.Duration, version string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: fmt.Sprintf("pulse/%s (+https://github.com/tinytelemetry/pulse)", version),
		maxBody:   maxBodySize,
	}
}

// Fetch performs one GET against the target URL and returns the response
// body. Network errors and non-2xx statuses are both fetch failures.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("requesting %s: unexpected status %s", url, resp.Status)
	}

	// Read one byte past the cap so an oversized body is detected
	// instead of silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("reading response from %s: body exceeds %d bytes", url, c.maxBody)
	}
	return body, nil
}
