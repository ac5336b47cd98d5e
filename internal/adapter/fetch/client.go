// Package fetch retrieves dataset and boundary files by name from a local
// directory or an HTTP base URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// ErrNotFound is returned when the named file does not exist at the source.
var ErrNotFound = errors.New("file not found")

// maxBodyBytes caps a single downloaded file.
const maxBodyBytes = 64 << 20

// Fetcher returns the raw bytes of a named file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Options configures a Fetcher built by New.
type Options struct {
	Timeout   time.Duration
	Retries   int
	CacheSize int
	CacheTTL  time.Duration
}

// New picks an HTTP client for http(s) sources and a directory reader
// otherwise, wrapped in a cache when CacheSize is positive.
func New(source string, opts Options, logger *slog.Logger, metrics *observability.Metrics) Fetcher {
	var f Fetcher
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		f = NewClient(source, opts.Timeout, opts.Retries, logger, metrics)
	} else {
		f = NewDir(source, metrics)
	}
	if opts.CacheSize > 0 {
		f = NewCached(f, opts.CacheSize, opts.CacheTTL, nil, metrics)
	}
	return f
}

// Client fetches files relative to a base URL, retrying transient failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an HTTP fetcher. retries is the number of extra attempts
// after the first failure.
func NewClient(baseURL string, timeout time.Duration, retries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:    retries,
		backoff:    200 * time.Millisecond,
		maxBackoff: 5 * time.Second,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch downloads baseURL/name. Server errors and transport failures are
// retried with exponential backoff; a 404 is reported as ErrNotFound at once.
func (c *Client) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := c.baseURL + "/" + url.PathEscape(name)
	backoff := c.backoff

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("fetch failed, retrying", "file", name, "attempt", attempt, "error", lastErr)
			if !retry.SleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = retry.NextBackoff(backoff, c.maxBackoff)
		}

		data, retryable, err := c.doRequest(ctx, u)
		if err == nil {
			c.metrics.FetchRequests.WithLabelValues("http", "success").Inc()
			return data, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	c.metrics.FetchRequests.WithLabelValues("http", "error").Inc()
	return nil, lastErr
}

// doRequest performs one GET. The bool reports whether the failure is worth
// retrying.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, true, fmt.Errorf("fetch request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, fullURL)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("fetch %s: status %d", fullURL, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("fetch %s: status %d: %s", fullURL, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return data, false, nil
}

// Dir reads files from a local directory.
type Dir struct {
	root    string
	metrics *observability.Metrics
}

// NewDir creates a fetcher rooted at dir.
func NewDir(dir string, metrics *observability.Metrics) *Dir {
	return &Dir{root: dir, metrics: metrics}
}

// Fetch reads root/name. Names that would escape the root are rejected.
func (d *Dir) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		d.metrics.FetchRequests.WithLabelValues("file", "error").Inc()
		return nil, fmt.Errorf("invalid file name %q", name)
	}

	start := time.Now()
	data, err := os.ReadFile(filepath.Join(d.root, name))
	d.metrics.FetchDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
	if err != nil {
		d.metrics.FetchRequests.WithLabelValues("file", "error").Inc()
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	d.metrics.FetchRequests.WithLabelValues("file", "success").Inc()
	return data, nil
}
