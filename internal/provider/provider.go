// Package provider holds the HTTP clients for the third-party services the
// gateway proxies. Each upstream gets its own circuit breaker and
// client-side rate limiter.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/nightapi/nightapi/internal/metrics"
)

const (
	// DefaultTimeout bounds a single outbound call.
	DefaultTimeout = 20 * time.Second

	breakerFailureThreshold = 5
	breakerCooldown         = 30 * time.Second
	maxErrorBodyBytes       = 512
)

var (
	// ErrNoResults is returned when an upstream answered but had nothing for
	// the query.
	ErrNoResults = errors.New("no results")
	// ErrBadResponse is returned when an upstream answered with a body the
	// client could not interpret.
	ErrBadResponse = errors.New("unexpected upstream response")
	// ErrExhausted is returned when every step of a fallback chain failed.
	ErrExhausted = errors.New("all providers failed")
)

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream returned %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Client is the shared transport for one upstream.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	metrics metrics.Recorder
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream's base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout on the client's HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithRateLimit sets the client-side request rate.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func newClient(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		metrics: metrics.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "provider", "provider", name)

	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    name,
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c
}

// Name returns the upstream's name.
func (c *Client) Name() string { return c.name }

// endpoint joins the base URL with path and query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends req through the limiter and breaker and hands a 2xx response to
// handle. The body is always closed.
func (c *Client) do(req *http.Request, handle func(*http.Response) error) error {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", c.name, err)
	}

	_, err := c.breaker.Execute(func() (struct{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s: %w", c.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
			return struct{}{}, &StatusError{
				Provider:   c.name,
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(body)),
			}
		}
		return struct{}{}, handle(resp)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%s: %w", c.name, err)
		}
		c.metrics.IncProviderFailure(c.name)
		c.logger.Warn("upstream request failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func decodeJSON(provider string, resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", provider, ErrBadResponse, err)
	}
	return nil
}

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, func(resp *http.Response) error {
		return decodeJSON(c.name, resp, out)
	})
}

// postJSON issues a POST with a JSON body and decodes the JSON reply.
func (c *Client) postJSON(ctx context.Context, rawURL string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, func(resp *http.Response) error {
		return decodeJSON(c.name, resp, out)
	})
}

// download streams the body of rawURL into w and returns the bytes copied.
// An empty body is an error.
func (c *Client) download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: build request: %w", c.name, err)
	}

	var n int64
	err = c.do(req, func(resp *http.Response) error {
		copied, err := io.Copy(w, resp.Body)
		n = copied
		if err != nil {
			return fmt.Errorf("%s: read body: %w", c.name, err)
		}
		if copied == 0 {
			return fmt.Errorf("%s: empty body: %w", c.name, ErrBadResponse)
		}
		return nil
	})
	return n, err
}
