// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client is an http.Client paced by a token bucket shared by all callers.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns an unpaced client.
func NewClient(timeout time.Duration) *Client {
	return NewRateLimitedClient(timeout, 0, 0)
}

// NewRateLimitedClient paces requests at requestsPerSecond with the given burst.
// A non-positive rate disables pacing.
func NewRateLimitedClient(timeout time.Duration, requestsPerSecond float64, burst int) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// WithTransport swaps the underlying transport, mainly for tests.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.httpClient.Transport = rt
	return c
}

// DoWithContext waits for a token, then sends req bound to ctx.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req.WithContext(ctx))
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}
