// Package resilient is an HTTP request wrapper with a per-attempt timeout,
// exponential backoff and a pluggable retry classifier.
package resilient

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
)

// Request describes one logical call. Body may be nil, a []byte sent verbatim, or
// any value that is JSON-encoded once and replayed on every attempt.
type Request struct {
	Method string
	Path   string // joined onto the base URL unless it is absolute
	Query  url.Values
	Header http.Header
	Body   any
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Attempt describes the outcome of a single network attempt.
type Attempt struct {
	Method     string
	URL        string
	Number     int
	StatusCode int
	Duration   time.Duration
	Err        error
	Retry      bool
	Backoff    time.Duration
}

// Observer receives every attempt outcome, e.g. to record metrics.
type Observer interface {
	ObserveAttempt(ctx context.Context, attempt Attempt)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds client configuration. It is copied by New; later changes have no effect.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      RetryPolicy
	Auth       Authenticator
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
	Sleep      SleepFunc
}

// Client executes requests with retries. It is safe for concurrent use; each call
// keeps its own attempt counter.
type Client struct {
	baseURL  string
	timeout  time.Duration
	policy   RetryPolicy
	auth     Authenticator
	headers  http.Header
	http     *http.Client
	logger   *slog.Logger
	observer Observer
	sleep    SleepFunc
}

// New creates a new client.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		policy:   cfg.Retry.withDefaults(),
		auth:     cfg.Auth,
		headers:  make(http.Header),
		http:     cfg.HTTPClient,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		sleep:    cfg.Sleep,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	for k, v := range cfg.Headers {
		c.headers.Set(k, v)
	}

	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Policy returns the client's retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// WithoutAuth returns a copy of the client that sends no credentials.
func (c *Client) WithoutAuth() *Client {
	clone := *c
	clone.auth = nil
	return &clone
}

// Do executes the request, retrying transient failures according to the policy.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.attempt(ctx, method, target, body, req.Header)
		elapsed := time.Since(start)

		if err == nil {
			resp.Attempts = attempt
			c.observe(ctx, Attempt{
				Method:     method,
				URL:        target,
				Number:     attempt,
				StatusCode: resp.StatusCode,
				Duration:   elapsed,
			})
			return resp, nil
		}

		// The caller gave up; nothing left to retry for.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		retryable := c.policy.Classifier(err)
		final := !retryable || attempt == c.policy.MaxAttempts

		var delay time.Duration
		if !final {
			delay = c.policy.Backoff(attempt)
		}

		c.observe(ctx, Attempt{
			Method:     method,
			URL:        target,
			Number:     attempt,
			StatusCode: StatusCode(err),
			Duration:   elapsed,
			Err:        err,
			Retry:      !final,
			Backoff:    delay,
		})

		if !retryable {
			return nil, err
		}
		if final {
			break
		}

		if c.logger != nil {
			c.logger.DebugContext(ctx, "retrying request",
				"method", method,
				"url", target,
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"backoff", delay,
				"error", err)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempts: c.policy.MaxAttempts, Err: lastErr}
}

// DoJSON executes the request and decodes a successful body into out.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// attempt performs one bounded network round trip.
func (c *Client) attempt(ctx context.Context, method, target string, body []byte, extra http.Header) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, values := range extra {
		httpReq.Header.Del(k)
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	if c.auth != nil {
		if err := c.auth.Authenticate(attemptCtx, httpReq); err != nil {
			return nil, fmt.Errorf("authenticate request: %w", err)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp, data)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// transportError separates per-attempt timeouts from other transport failures.
func (c *Client) transportError(parent, attemptCtx context.Context, method, target string, err error) error {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &AbortError{URL: target, After: c.timeout, Err: err}
	}
	return &NetworkError{Method: method, URL: target, Err: err}
}

func (c *Client) observe(ctx context.Context, a Attempt) {
	if c.observer != nil {
		c.observer.ObserveAttempt(ctx, a)
	}
}

// resolve builds the absolute request URL.
func (c *Client) resolve(req *Request) (string, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if c.baseURL == "" {
			return "", fmt.Errorf("relative path %q without base URL", req.Path)
		}
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}

	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	if _, err := url.Parse(target); err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	return target, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
