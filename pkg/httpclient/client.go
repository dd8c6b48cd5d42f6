// Package httpclient is the outbound HTTP client used to fetch remote catalog
// feeds. Requests are traced with otelhttp and throttled by a token bucket.
package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	// RPS caps outgoing requests per second. Zero disables throttling.
	RPS   float64
	Burst int
	// Timeout bounds a whole request including the body read by Text. Open
	// callers bound the body read through their context.
	Timeout time.Duration

	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return e.Method + " " + e.URL + ": unexpected status " + http.StatusText(e.Code)
}

// Client sends requests and returns response bodies.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(opts.Burst, 1))
	}

	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(base, otelOpts...),
			Timeout:   opts.Timeout,
		},
		limiter: limiter,
	}
}

// Do waits for the rate limiter and sends req. Non-2xx responses are
// returned as *StatusError with the body already closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Redacted())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{Method: req.Method, URL: req.URL.Redacted(), Code: resp.StatusCode}
	}
	return resp, nil
}

// Open issues a GET and returns the response body for streaming. The caller
// closes it.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Text sends a request built by build and returns the response body as a
// string.
func (c *Client) Text(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (string, error) {
	req, err := build(ctx)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}
	return string(b), nil
}
