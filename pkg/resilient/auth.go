package resilient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Authenticator decorates an outgoing request with credentials. It runs once per
// attempt so short-lived tokens are refreshed between retries.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// HeaderAuth sets a single header, e.g. x-goog-api-key.
type HeaderAuth struct {
	Name  string
	Value string
}

// Authenticate implements Authenticator.
func (a HeaderAuth) Authenticate(_ context.Context, req *http.Request) error {
	if a.Value == "" {
		return nil
	}
	req.Header.Set(a.Name, a.Value)
	return nil
}

// BearerAuth returns an Authenticator sending "Authorization: Bearer <token>".
// An empty token sends nothing.
func BearerAuth(token string) Authenticator {
	if token == "" {
		return nil
	}
	return HeaderAuth{Name: "Authorization", Value: "Bearer " + token}
}

// TokenSourceAuth authenticates with tokens from an oauth2.TokenSource.
type TokenSourceAuth struct {
	Source oauth2.TokenSource
}

// Authenticate implements Authenticator.
func (a TokenSourceAuth) Authenticate(_ context.Context, req *http.Request) error {
	token, err := a.Source.Token()
	if err != nil {
		return fmt.Errorf("fetch oauth2 token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}
