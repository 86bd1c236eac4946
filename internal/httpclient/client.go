// Package httpclient provides the resilient HTTP executor shared by all
// outbound SCM calls. Retries with exponential backoff are handled by
// hashicorp/go-retryablehttp; callers receive the final status code and body
// and perform their own validation.
package httpclient

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Default configuration values for the executor.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 1 * time.Second
	MaxBackoff        = 30 * time.Second
)

// Response is the uniform result of an executed request. Non-2xx status
// codes are not errors at this layer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Options configures the executor.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Stats is a snapshot of the executor's request counters.
type Stats struct {
	Requests int64 `json:"requests"`
	Retries  int64 `json:"retries"`
	Failures int64 `json:"failures"`
}

// Client executes HTTP requests with retry/backoff and counts outcomes.
type Client struct {
	rc       *retryablehttp.Client
	requests atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

// New creates an executor with the given options. Zero values fall back to
// the package defaults.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MinBackoff == 0 {
		opts.MinBackoff = DefaultBackoff
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = MaxBackoff
	}

	c := &Client{}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = opts.MinBackoff
	rc.RetryWaitMax = opts.MaxBackoff
	rc.Logger = nil
	rc.CheckRetry = checkRetry
	// Exhausted retries should surface the last response, not an error:
	// status validation belongs to the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 {
			c.retries.Add(1)
		}
	}

	c.rc = rc
	return c
}

// checkRetry restricts retries to requests that are safe to repeat. A
// transport error on a non-idempotent method is never retried, because the
// provider may have applied the request before the connection failed.
// Response-level retries (429/5xx) follow the default policy for all methods.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err != nil && resp == nil {
		method := ""
		if v := ctx.Value(methodKey{}); v != nil {
			method = v.(string)
		}
		if method != http.MethodGet && method != http.MethodHead {
			return false, err
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

type methodKey struct{}

// Do executes a single request and returns the final response envelope.
// Transport-level failures (DNS, connection, timeout) are returned as errors;
// any HTTP response, success or not, is returned as a *Response.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	c.requests.Add(1)

	ctx = context.WithValue(ctx, methodKey{}, method)

	var raw any
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, raw)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}
	if resp.StatusCode >= 400 {
		c.failures.Add(1)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Retries:  c.retries.Load(),
		Failures: c.failures.Load(),
	}
}
