// Package fetch provides the cached HTTP session used for registry queries.
//
// Responses are cached in memory and optionally persisted to a gob file
// between runs, so repeated catalog updates do not hammer doi.org and
// friends. Requests go through a retrying client that backs off on
// transport errors and 5xx responses; 4xx responses are returned to the
// caller unchanged and are not cached.
package fetch

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sethgrid/pester"
)

const userAgent = "tabbycat (https://github.com/psychoinformatics-de/tabbycat)"

func init() {
	gob.Register(cachedResponse{})
}

// Response is a downloaded registry response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response carries a usable payload.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

type cachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Doer performs HTTP requests. *pester.Client and *http.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a caching HTTP session.
type Client struct {
	doer      Doer
	cache     *gocache.Cache
	cachePath string
	mailto    string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the underlying HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithMailto attaches a contact address to outgoing requests, as polite
// API etiquette for Crossref and friends.
func WithMailto(email string) Option {
	return func(c *Client) { c.mailto = email }
}

// WithCachePath persists the cache to the given file. Save writes it;
// New loads it when present.
func WithCachePath(path string) Option {
	return func(c *Client) { c.cachePath = path }
}

// New creates a caching session. By default responses are cached for the
// lifetime of the process only; combine WithCachePath and Save to keep
// the cache across runs.
func New(opts ...Option) *Client {
	p := pester.New()
	p.Concurrency = 1
	p.MaxRetries = 3
	p.Backoff = pester.ExponentialBackoff
	p.Timeout = 30 * time.Second

	c := &Client{
		doer:  p,
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cachePath != "" {
		if err := c.cache.LoadFile(c.cachePath); err != nil {
			if !os.IsNotExist(err) {
				slog.Debug("could not load query cache", "path", c.cachePath, "error", err)
			}
		}
	}
	return c
}

// Mailto returns the configured contact address, if any.
func (c *Client) Mailto() string {
	return c.mailto
}

// Get fetches a URL, serving from cache when possible. Extra headers
// (typically Accept) take part in the cache key. A non-nil Response with
// a non-200 status is not an error; callers decide what a 404 means.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	key := cacheKey(url, header)
	if v, ok := c.cache.Get(key); ok {
		if cached, ok := v.(cachedResponse); ok {
			return &Response{StatusCode: cached.Status, Header: cached.Header, Body: cached.Body}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		ua := userAgent
		if c.mailto != "" {
			ua = fmt.Sprintf("%s (mailto:%s)", userAgent, c.mailto)
		}
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
	if resp.StatusCode == http.StatusOK {
		c.cache.Set(key, cachedResponse{Status: out.StatusCode, Header: out.Header, Body: body}, gocache.NoExpiration)
	}
	return out, nil
}

// Save persists the cache when a cache path is configured.
func (c *Client) Save() error {
	if c.cachePath == "" {
		return nil
	}
	if err := c.cache.SaveFile(c.cachePath); err != nil {
		return fmt.Errorf("saving query cache to %s: %w", c.cachePath, err)
	}
	return nil
}

func cacheKey(url string, header http.Header) string {
	return url + "\n" + header.Get("Accept")
}
