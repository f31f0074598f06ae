package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Scrape targets reject obviously non-browser clients, so every request
// carries a realistic desktop identity.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultTimeout = 20 * time.Second

	// maxBodyBytes caps how much of a response we are willing to read.
	maxBodyBytes = 5 * 1024 * 1024
)

// Error is the single failure type for outbound page fetches: network
// error, timeout, or a non-2xx status. Status is 0 when no response was
// received at all.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client performs single outbound GETs with a browser-like identity and a
// hard timeout. It does no retries of its own; fallback is the caller's
// decision.
type Client struct {
	HTTP *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{Timeout: timeout},
	}
}

// Get fetches url and returns the body as a string. All failures come back
// as *Error.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	return string(body), nil
}

// GetStream fetches url and returns the open response body for streaming
// (used by the asset downloader). The caller must close it.
func (c *Client) GetStream(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &Error{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, "", &Error{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", &Error{URL: url, Status: resp.StatusCode}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
