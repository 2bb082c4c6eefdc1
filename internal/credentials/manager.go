// Package credentials acquires and caches provider OAuth2 access tokens.
// Tokens are owned exclusively by the Manager: callers receive bearer values
// through a transport.TokenSource and never see a token that is expired or
// inside the refresh safety margin.
package credentials

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/parcelscope/parcelscope/internal/transport"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/logging"
)

// DefaultRefreshMargin is how long before expiry a token is refreshed.
const DefaultRefreshMargin = 2 * time.Minute

// Token is a cached provider access token.
type Token struct {
	ProviderID  string
	AccessToken string
	ExpiresAt   time.Time
}

// fresh reports whether the token is still outside the refresh margin.
func (t *Token) fresh(now time.Time, margin time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		// Tokens without an expiry never go stale.
		return true
	}
	return now.Add(margin).Before(t.ExpiresAt)
}

// Config holds the client-credentials grant parameters for one provider.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Manager caches tokens per provider and refreshes them proactively.
// Concurrent refreshes for the same provider are coalesced; a harmless
// duplicate exchange on a race is acceptable but avoided in the common path.
type Manager struct {
	mu      sync.RWMutex
	tokens  map[string]*Token
	configs map[string]*clientcredentials.Config

	group  singleflight.Group
	margin time.Duration
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRefreshMargin overrides the refresh safety margin.
func WithRefreshMargin(margin time.Duration) Option {
	return func(m *Manager) {
		if margin > 0 {
			m.margin = margin
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a credential manager. Providers are registered
// explicitly; the manager holds no ambient global state.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		tokens:  make(map[string]*Token),
		configs: make(map[string]*clientcredentials.Config),
		margin:  DefaultRefreshMargin,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register configures the client-credentials grant for a provider.
func (m *Manager) Register(providerID string, cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[providerID] = &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
}

// Token returns a valid access token for the provider, performing the OAuth2
// exchange on first use or when the cached token is inside the refresh
// margin. Transient network failures get one immediate retry, then the error
// propagates as a typed AuthenticationError.
func (m *Manager) Token(ctx context.Context, providerID string) (*Token, error) {
	m.mu.RLock()
	cached := m.tokens[providerID]
	cfg := m.configs[providerID]
	m.mu.RUnlock()

	if cfg == nil {
		return nil, &pkgerrors.AuthenticationError{
			Provider: providerID,
			Method:   "oauth2",
			Message:  "no credentials registered",
			Err:      pkgerrors.ErrCredentialsRequired,
		}
	}

	if cached.fresh(m.now(), m.margin) {
		return cached, nil
	}

	v, err, _ := m.group.Do(providerID, func() (any, error) {
		// Re-check under the flight: another caller may have refreshed.
		m.mu.RLock()
		current := m.tokens[providerID]
		m.mu.RUnlock()
		if current.fresh(m.now(), m.margin) {
			return current, nil
		}

		token, err := m.exchange(ctx, providerID, cfg)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.tokens[providerID] = token
		m.mu.Unlock()

		logging.Ctx(ctx).Debug().
			Str("provider_id", providerID).
			Time("expires_at", token.ExpiresAt).
			Msg("Provider token refreshed")

		return token, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

// exchange performs the client-credentials grant with one bounded retry.
func (m *Manager) exchange(ctx context.Context, providerID string, cfg *clientcredentials.Config) (*Token, error) {
	tok, err := cfg.Token(ctx)
	if err != nil && retryable(ctx, err) {
		logging.Ctx(ctx).Warn().
			Str("provider_id", providerID).
			Err(err).
			Msg("Token exchange failed, retrying once")
		tok, err = cfg.Token(ctx)
	}
	if err != nil {
		return nil, authError(providerID, err)
	}

	return &Token{
		ProviderID:  providerID,
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.Expiry,
	}, nil
}

// retryable reports whether a token exchange failure was transient. Provider
// rejections (RetrieveError) are final; everything else is treated as a
// network failure worth one retry.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var retrieveErr *oauth2.RetrieveError
	return !errors.As(err, &retrieveErr)
}

// authError translates an exchange failure into the engine's taxonomy.
func authError(providerID string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &pkgerrors.AuthenticationError{
			Provider: providerID,
			Method:   "oauth2",
			Message:  "token endpoint rejected credentials",
			Err:      pkgerrors.ErrCredentialsRejected,
		}
	}
	return &pkgerrors.AuthenticationError{
		Provider: providerID,
		Method:   "oauth2",
		Message:  "token exchange failed",
		Err:      err,
	}
}

// Source returns a transport.TokenSource for the provider, suitable for
// wiring into a BearerAuth authenticator.
func (m *Manager) Source(providerID string) transport.TokenSource {
	return func(ctx context.Context) (string, error) {
		token, err := m.Token(ctx, providerID)
		if err != nil {
			return "", err
		}
		return token.AccessToken, nil
	}
}

// Invalidate drops the cached token for a provider, forcing a refresh on the
// next request.
func (m *Manager) Invalidate(providerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, providerID)
}
