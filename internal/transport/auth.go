package transport

import (
	"context"
	"net/http"
)

// TokenSource supplies a fresh credential value for a request. Implementations
// must never return an expired token.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields the given value.
func StaticToken(value string) TokenSource {
	return func(context.Context) (string, error) {
		return value, nil
	}
}

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ context.Context, _ *http.Request) error {
	return nil
}

// BearerAuth implements Bearer token authentication backed by a TokenSource,
// so OAuth2 access tokens are looked up per request rather than pinned at
// client construction.
type BearerAuth struct {
	Source TokenSource
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(ctx context.Context, req *http.Request) error {
	token, err := a.Source(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// HeaderAuth implements static API key authentication in a custom header.
type HeaderAuth struct {
	Header string
	Source TokenSource
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(ctx context.Context, req *http.Request) error {
	key, err := a.Source(ctx)
	if err != nil {
		return err
	}
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, key)
	return nil
}

// QueryAuth implements API key as query parameter authentication.
type QueryAuth struct {
	Param  string
	Source TokenSource
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(ctx context.Context, req *http.Request) error {
	if req.URL == nil {
		return nil
	}
	key, err := a.Source(ctx)
	if err != nil {
		return err
	}
	query := req.URL.Query()
	query.Set(a.Param, key)
	req.URL.RawQuery = query.Encode()
	return nil
}
