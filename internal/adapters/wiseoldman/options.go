package wiseoldman

import (
	"net/http"
	"time"
)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithMinInterval sets the pacing between requests. WiseOldMan rate
// limits aggressively; the default keeps us at one request per second.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithRetryWait sets the backoff before the single retry of a
// rate-limited request when no Retry-After header is given.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}
