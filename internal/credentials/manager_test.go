package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
)

// tokenEndpoint returns a test OAuth2 token endpoint counting exchanges.
func tokenEndpoint(t *testing.T, calls *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, "unsupported grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
}

func TestTokenExchangeAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	m := NewManager()
	m.Register("lightbox", Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/oauth/token",
	})

	ctx := context.Background()
	tok, err := m.Token(ctx, "lightbox")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok.AccessToken)
	assert.Equal(t, "lightbox", tok.ProviderID)

	// Fresh token: zero additional exchanges.
	_, err = m.Token(ctx, "lightbox")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenRefreshInsideMargin(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	now := time.Now()
	m := NewManager(WithClock(func() time.Time { return now }))
	m.Register("lightbox", Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	ctx := context.Background()
	_, err := m.Token(ctx, "lightbox")
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	// Advance the clock to within the safety margin of expiry: exactly one
	// refresh happens before the token is handed out again.
	now = now.Add(3600*time.Second - time.Minute)
	tok, err := m.Token(ctx, "lightbox")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, tok.ExpiresAt.After(now))
}

func TestTokenNotRegistered(t *testing.T) {
	m := NewManager()
	_, err := m.Token(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCredentialError(err))
}

func TestTokenRejectedCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewManager()
	m.Register("lightbox", Config{ClientID: "bad", ClientSecret: "bad", TokenURL: srv.URL})

	_, err := m.Token(context.Background(), "lightbox")
	require.Error(t, err)

	var authErr *pkgerrors.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "lightbox", authErr.Provider)
	// Provider rejections are final, not retried.
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenTransientFailureRetriedOnce(t *testing.T) {
	var attempts atomic.Int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Hijack and drop the connection to simulate a network failure.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-after-retry",
			"token_type":   "Bearer",
			"expires_in":   600,
		})
	}))
	defer flaky.Close()

	m := NewManager()
	m.Register("lightbox", Config{ClientID: "id", ClientSecret: "secret", TokenURL: flaky.URL})

	tok, err := m.Token(context.Background(), "lightbox")
	require.NoError(t, err)
	assert.Equal(t, "tok-after-retry", tok.AccessToken)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSourceFeedsTransport(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	m := NewManager()
	m.Register("lightbox", Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	source := m.Source("lightbox")
	value, err := source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", value)
}

func TestInvalidateForcesRefresh(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	m := NewManager()
	m.Register("lightbox", Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	ctx := context.Background()
	_, err := m.Token(ctx, "lightbox")
	require.NoError(t, err)

	m.Invalidate("lightbox")
	_, err = m.Token(ctx, "lightbox")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
