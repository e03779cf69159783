package httpclient

import (
	"net"
	"net/http"

	"github.com/promptreel/server/internal/shared/config"
)

// RedirectPolicy matches http.Client.CheckRedirect.
type RedirectPolicy func(req *http.Request, via []*http.Request) error

// New creates a pooled HTTP client. Per-request deadlines come from the caller's
// context, so the client itself sets no overall timeout.
func New(cfg config.HTTPClientConfig, checkRedirect RedirectPolicy) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}
}
