// Package sdk is a Go client for the prompt catalog API.
package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/promptreel/server/pkg/resilient"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3
)

const trpcPrefix = "/api/trpc/"

// ErrMissingBaseURL is returned by New when no base URL is configured.
var ErrMissingBaseURL = errors.New("sdk: base URL is required")

// Config holds client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. https://prompts.example.com.
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Retries is the total number of attempts for transient failures.
	Retries    int
	HTTPClient *http.Client

	sleep resilient.SleepFunc
}

// Client calls the catalog procedures.
type Client struct {
	http *resilient.Client
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}

	rc := &resilient.Config{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		Retry:      resilient.RetryPolicy{MaxAttempts: cfg.Retries},
		HTTPClient: cfg.HTTPClient,
		Sleep:      cfg.sleep,
	}
	if cfg.APIKey != "" {
		rc.Auth = resilient.BearerAuth(cfg.APIKey)
	}

	return &Client{http: resilient.New(rc)}, nil
}

// GenerateVariation generates variations of a stored prompt.
func (c *Client) GenerateVariation(ctx context.Context, opts GenerateVariationOptions) (*GenerateVariationResult, error) {
	if opts.Count == 0 {
		opts.Count = 1
	}
	var out envelope[GenerateVariationResult]
	if err := c.call(ctx, http.MethodPost, "generator.generateVariation", nil, opts, &out); err != nil {
		return nil, err
	}
	return &out.Result.Data, nil
}

// GetPrompts lists every stored prompt.
func (c *Client) GetPrompts(ctx context.Context) (*PromptsListResult, error) {
	var out envelope[PromptsListResult]
	if err := c.call(ctx, http.MethodGet, "prompts.list", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Result.Data, nil
}

// GetPromptByID fetches one prompt.
func (c *Client) GetPromptByID(ctx context.Context, id uint) (*Prompt, error) {
	query := url.Values{"id": {strconv.FormatUint(uint64(id), 10)}}
	var out envelope[Prompt]
	if err := c.call(ctx, http.MethodGet, "prompts.getById", query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Result.Data, nil
}

// GetPromptsByCategory lists prompts whose category or tags match category.
func (c *Client) GetPromptsByCategory(ctx context.Context, category string) (*PromptsListResult, error) {
	query := url.Values{"category": {category}}
	var out envelope[PromptsListResult]
	if err := c.call(ctx, http.MethodGet, "prompts.listByCategory", query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Result.Data, nil
}

func (c *Client) call(ctx context.Context, method, procedure string, query url.Values, body, out any) error {
	return c.http.DoJSON(ctx, &resilient.Request{
		Method: method,
		Path:   trpcPrefix + procedure,
		Query:  query,
		Body:   body,
	}, out)
}
