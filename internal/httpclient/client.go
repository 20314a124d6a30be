package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/everstacklabs/modelroute/internal/cache"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies catalog fetches.
const DefaultUserAgent = "modelroute-catalog/1"

// maxBodySize caps a fetched catalog document.
const maxBodySize = 32 << 20

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP GET %s: status %d: %s", e.URL, e.Code, e.Body)
}

// Client fetches remote catalog documents with caching, rate limiting and
// conditional revalidation.
type Client struct {
	http      *http.Client
	cache     *cache.FileCache
	limiter   *rate.Limiter
	noCache   bool
	userAgent string
}

// Option configures the Client.
type Option func(*Client)

// WithCache enables file-based caching.
func WithCache(c *cache.FileCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithNoCache disables caching.
func WithNoCache() Option {
	return func(cl *Client) { cl.noCache = true }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// New creates a new HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a fetched document.
type Response struct {
	Body       []byte
	ETag       string
	FromCache  bool
	Revalidate bool // served from cache after a 304
}

func (c *Client) caching() bool {
	return c.cache != nil && !c.noCache
}

// Get fetches url. A fresh cache entry is returned without a request; a stale
// one is revalidated with If-None-Match / If-Modified-Since.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	var stale *cache.Entry
	if c.caching() {
		entry, fresh := c.cache.Get(url)
		if fresh {
			slog.Debug("catalog cache hit", "url", url)
			return &Response{Body: entry.Body, ETag: entry.ETag, FromCache: true}, nil
		}
		stale = entry
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if stale != nil {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastMod != "" {
			req.Header.Set("If-Modified-Since", stale.LastMod)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		if err := c.cache.Touch(url); err != nil {
			slog.Warn("refreshing catalog cache entry", "url", url, "error", err)
		}
		return &Response{Body: stale.Body, ETag: stale.ETag, FromCache: true, Revalidate: true}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Body: string(body)}
	}

	etag := resp.Header.Get("ETag")
	if c.caching() {
		if err := c.cache.Set(url, &cache.Entry{
			Body:    body,
			ETag:    etag,
			LastMod: resp.Header.Get("Last-Modified"),
		}); err != nil {
			slog.Warn("writing catalog cache entry", "url", url, "error", err)
		}
	}

	return &Response{Body: body, ETag: etag}, nil
}
