package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/oatmealdealer/download-papertrail/pkg/archive"
)

// DefaultBaseURL is the root of the Papertrail HTTP API.
const DefaultBaseURL = "https://papertrailapp.com/api/v1/"

// tokenHeader carries the API credential on every request.
const tokenHeader = "X-Papertrail-Token"

// Common errors.
var (
	ErrNotFound     = errors.New("client: archive not found")
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrForbidden    = errors.New("client: access forbidden")
	ErrServerError  = errors.New("client: server error")
)

// IsAuthError reports whether err indicates a rejected credential. The
// credential is shared by every request in a batch, so an auth error on one
// archive will fail all of them.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// Throttle gates outbound requests. Wait blocks until the caller may start
// a request, or returns the context's error.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Options configures the client.
type Options struct {
	// Token is the Papertrail API token. Never logged.
	Token string

	// BaseURL is the API root. Default: DefaultBaseURL.
	BaseURL string

	// Throttle gates every outbound request, including retries. Optional.
	Throttle Throttle

	// Timeout for individual requests.
	// Default: 5m (archives can be large).
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 8
	MaxIdleConnsPerHost int

	// RetryAttempts is the maximum number of attempts per fetch.
	// Default: 3
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 500ms
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 10s
	RetryMaxBackoff time.Duration
}

// DefaultOptions returns options with sensible defaults. The token and
// throttle must still be supplied by the caller.
func DefaultOptions() Options {
	return Options{
		BaseURL:             DefaultBaseURL,
		Timeout:             5 * time.Minute,
		MaxIdleConnsPerHost: 8,
		RetryAttempts:       3,
		RetryBackoff:        500 * time.Millisecond,
		RetryMaxBackoff:     10 * time.Second,
	}
}

// Client fetches archive files from the Papertrail API.
type Client struct {
	client *http.Client
	opts   Options
}

// New creates a client with the given options. Zero fields fall back to
// DefaultOptions values.
func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = def.RetryAttempts
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.RetryMaxBackoff == 0 {
		opts.RetryMaxBackoff = def.RetryMaxBackoff
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true, // archives are already gzip; we want the raw bytes
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// Fetch downloads the archive named by id and returns its body stream.
// Transient failures (transport errors, 5xx) are retried with exponential
// backoff; auth and not-found responses are returned immediately. One
// throttle slot is consumed before each attempt, so retries stay inside
// the global rate ceiling.
func (c *Client) Fetch(ctx context.Context, id archive.Identifier) (io.ReadCloser, error) {
	url := c.opts.BaseURL + id.RemotePath()

	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 1 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		if c.opts.Throttle != nil {
			if err := c.opts.Throttle.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(tokenHeader, c.opts.Token)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", id, c.opts.RetryAttempts, lastErr)
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-2))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
