package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/pipscope/pkg/cache"
	"github.com/matzehuels/pipscope/pkg/httputil"
)

// Client provides shared HTTP functionality for registry API clients.
// It caches successful responses through a [cache.Cache] backend and
// classifies failures into the package's sentinel errors.
type Client struct {
	http     *http.Client
	backend  cache.Cache
	prefix   string
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient creates a Client. Responses cache under prefix+key with the
// given TTL; pass a [cache.NullCache] (or nil) to disable caching.
// Headers are applied to all requests; pass nil if none are needed.
// Fetches are single-attempt until [Client.EnableRetry] is called.
func NewClient(backend cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:     NewHTTPClient(),
		backend:  backend,
		prefix:   prefix,
		ttl:      ttl,
		headers:  headers,
		attempts: 1,
		delay:    time.Second,
	}
}

// EnableRetry switches transient failures (network errors, 5xx) to a
// bounded retry: 3 attempts with exponential backoff. 404s never retry.
func (c *Client) EnableRetry() {
	c.attempts = 3
}

// Cached retrieves a JSON value from the cache or executes fetch and
// caches the result. If refresh is true, the cache is bypassed and fetch
// is always called. The fetch function should populate v; on success, v
// is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	cacheKey := c.prefix + key
	if !refresh {
		if data, ok, _ := c.backend.Get(ctx, cacheKey); ok {
			if err := json.Unmarshal(data, v); err == nil {
				return nil
			}
			// Stale encoding, refetch
			_ = c.backend.Delete(ctx, cacheKey)
		}
	}
	if err := httputil.Retry(ctx, c.attempts, c.delay, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.backend.Set(ctx, cacheKey, data, c.ttl)
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
