// internal/common/http/client.go

// Package http wraps the outbound client used for completion-endpoint
// calls, pinning a hard per-request timeout on top of the caller's context.
package http

import (
	"context"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DoWithContext executes req under ctx. The client timeout still applies,
// so a request is bounded even when ctx carries no deadline.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
