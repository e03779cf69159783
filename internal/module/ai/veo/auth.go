package veo

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2/google"

	"github.com/promptreel/server/pkg/resilient"
)

// CloudPlatformScope is the OAuth2 scope used with application default credentials.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrNoCredentials is returned when neither an API key nor ADC is configured.
var ErrNoCredentials = errors.New("veo: no API key configured and application default credentials disabled")

// NewAuthenticator picks the provider credentials: the API key header when a key
// is set, otherwise an OAuth2 bearer token from application default credentials.
func NewAuthenticator(ctx context.Context, apiKey string, useADC bool) (resilient.Authenticator, error) {
	if apiKey != "" {
		return resilient.HeaderAuth{Name: APIKeyHeader, Value: apiKey}, nil
	}
	if !useADC {
		return nil, ErrNoCredentials
	}

	source, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("veo: default token source: %w", err)
	}
	return resilient.TokenSourceAuth{Source: source}, nil
}
