// Package transport provides the shared HTTP layer for provider clients:
// authentication, per-call timeouts, rate limiting, and the single bounded
// retry the engine allows on 5xx responses and timeouts.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
)

// DefaultTimeout is the default per-call timeout for provider requests.
const DefaultTimeout = 10 * time.Second

// Client provides HTTP client functionality with authentication, rate
// limiting, and one immediate retry on 5xx or timeout. Retry exhaustion
// surfaces to the caller, never loops.
type Client struct {
	http     *http.Client
	provider string
	auth     Authenticator
	limiter  *rate.Limiter
}

// Option configures a transport Client.
type Option func(*Client)

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithRateLimit applies a token-bucket rate limit to outgoing requests.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a transport client for the named provider.
func New(provider string, auth Authenticator, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		provider: provider,
		auth:     auth,
	}
	if c.auth == nil {
		c.auth = &NoAuth{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication applied. Requests that hit
// a 5xx or time out are retried exactly once, immediately; anything else
// propagates as-is. Only bodyless requests are retried.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.ErrCanceled
		}
	}

	resp, err := c.doOnce(ctx, req)
	if !c.shouldRetry(ctx, resp, err) || req.Body != nil {
		return c.finish(req, resp, err)
	}

	if resp != nil {
		drain(resp)
	}
	resp, err = c.doOnce(ctx, req.Clone(ctx))
	return c.finish(req, resp, err)
}

// doOnce performs a single authenticated attempt.
func (c *Client) doOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	if err := c.auth.Apply(ctx, req); err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// shouldRetry reports whether a single immediate retry is warranted.
func (c *Client) shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return isTimeout(err)
	}
	return resp.StatusCode >= 500
}

// finish translates the final attempt's failure into the engine's error
// taxonomy. Status-code handling is left to DecodeResponse, which has the
// response body for context.
func (c *Client) finish(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
	if err == nil {
		return resp, nil
	}
	if isTimeout(err) {
		return nil, pkgerrors.NewTimeoutError(c.provider, req.Method+" "+req.URL.Path, c.http.Timeout.String(), err)
	}
	if errors.Is(err, context.Canceled) {
		return nil, pkgerrors.ErrCanceled
	}
	return nil, err
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.WrapValidation("url", err)
	}
	return c.Do(ctx, req)
}

// GetJSON performs a GET request and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(c.provider, resp, target)
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
