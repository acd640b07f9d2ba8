package wiseoldman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultBase = "https://api.wiseoldman.net/v2"

type Client struct {
	http        *http.Client
	baseURL     string
	minInterval time.Duration
	retryWait   time.Duration

	mu   sync.Mutex
	last time.Time
}

func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		baseURL:     defaultBase,
		minInterval: time.Second,
		retryWait:   5 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// doJSON builds the URL, paces the request, and handles 404 and 429.
// A 429 gets exactly one retry, after Retry-After or a fixed backoff.
func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return err
		}

		req, _ := http.NewRequestWithContext(ctx, method, u, nil)
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("wiseoldman http: %w", err)
		}

		if res.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			res.Body.Close()
			backoff := c.retryWait
			if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
				backoff = time.Duration(sec) * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		defer res.Body.Close()
		if res.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
			return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		return json.NewDecoder(res.Body).Decode(out)
	}
}

// pace blocks until minInterval has passed since the previous request.
func (c *Client) pace(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.last)
	c.last = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
