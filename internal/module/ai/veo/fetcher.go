package veo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/promptreel/server/pkg/resilient"
)

// Fetcher downloads finished videos.
type Fetcher struct {
	client       *resilient.Client
	providerHost string
	logger       *slog.Logger
}

// NewFetcher creates a new fetcher. The client is expected to carry provider
// credentials; they are only sent to the host of providerBaseURL.
func NewFetcher(client *resilient.Client, providerBaseURL string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if providerBaseURL == "" {
		providerBaseURL = client.BaseURL()
	}
	return &Fetcher{
		client:       client,
		providerHost: hostOf(providerBaseURL),
		logger:       logger,
	}
}

// Download retrieves the artifact bytes.
func (f *Fetcher) Download(ctx context.Context, locator ArtifactLocator) ([]byte, error) {
	if strings.TrimSpace(string(locator)) == "" {
		return nil, &DownloadError{
			Locator: locator,
			Message: "empty artifact locator",
			Err:     errors.New("empty artifact locator"),
		}
	}

	client := f.client
	if host := hostOf(string(locator)); host == "" || !strings.EqualFold(host, f.providerHost) {
		client = client.WithoutAuth()
	}

	resp, err := client.Do(ctx, &resilient.Request{
		Method: http.MethodGet,
		Path:   string(locator),
	})
	if err != nil {
		code, msg := describe(err)
		return nil, &DownloadError{Locator: locator, StatusCode: code, Message: msg, Err: err}
	}

	f.logger.InfoContext(ctx, "video downloaded",
		"bytes", len(resp.Body),
		"content_type", resp.Header.Get("Content-Type"))

	return resp.Body, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// APIKeyHeader is the header carrying the Gemini API key.
const APIKeyHeader = "x-goog-api-key"

// CheckRedirect follows up to ten redirects and drops the API key whenever a
// redirect leaves the original host. Assign it to http.Client.CheckRedirect.
func CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if len(via) > 0 && !strings.EqualFold(req.URL.Hostname(), via[0].URL.Hostname()) {
		req.Header.Del(APIKeyHeader)
	}
	return nil
}
