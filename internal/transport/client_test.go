package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
)

func TestClientRetriesOnceOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New("lightbox", &NoAuth{})
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), srv.URL+"/parcels", &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New("repliers", &NoAuth{})
	err := c.GetJSON(context.Background(), srv.URL+"/listings", &struct{}{})
	require.Error(t, err)

	var apiErr *pkgerrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "repliers", apiErr.Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRetryExhaustionSurfacesAPIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("lightbox", &NoAuth{})
	err := c.GetJSON(context.Background(), srv.URL+"/parcels", &struct{}{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientTimeoutIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New("lightbox", &NoAuth{}, WithTimeout(20*time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTimeout(err))
}

func TestBearerAuthApplied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("lightbox", &BearerAuth{Source: StaticToken("tok-123")})
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &struct{}{}))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestHeaderAuthApplied(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("REPLIERS-API-KEY")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("repliers", &HeaderAuth{Header: "REPLIERS-API-KEY", Source: StaticToken("key-456")})
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &struct{}{}))
	assert.Equal(t, "key-456", gotKey)
}

func TestAuthFailurePropagates(t *testing.T) {
	c := New("lightbox", &BearerAuth{Source: func(context.Context) (string, error) {
		return "", pkgerrors.NewAuthenticationError("lightbox", "oauth2", "no credentials", nil)
	}})
	_, err := c.Get(context.Background(), "http://127.0.0.1:0/never")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCredentialError(err))
}
