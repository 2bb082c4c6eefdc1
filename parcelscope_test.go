package parcelscope

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// fakeProviders stands up httptest servers for both upstream APIs plus the
// OAuth2 token endpoint, and counts requests per endpoint.
type fakeProviders struct {
	lightbox *httptest.Server
	repliers *httptest.Server

	tokenRequests  atomic.Int64
	parcelRequests atomic.Int64
	searchRequests atomic.Int64
}

func newFakeProviders(t *testing.T) *fakeProviders {
	t.Helper()
	f := &fakeProviders{}

	f.lightbox = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/oauth/token":
			f.tokenRequests.Add(1)
			fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
		case r.URL.Path == "/parcels/address":
			f.parcelRequests.Add(1)
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"parcels":[{"id":"parcel-100","score":0.97,
				"location":{"streetAddress":"100 Main St","locality":"Fort Worth","regionCode":"TX","postalCode":"76102"},
				"geometry":{"representativePoint":{"latitude":32.7555,"longitude":-97.3308}}}]}`)
		case strings.HasSuffix(r.URL.Path, "/structure"):
			fmt.Fprint(w, `{"landUseDescription":"Single Family","yearBuilt":1985,"totalSquareFootage":2100}`)
		case strings.HasSuffix(r.URL.Path, "/valuation"):
			fmt.Fprint(w, `{"marketValue":450000,"assessedValue":410000}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.lightbox.Close)

	f.repliers = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("REPLIERS-API-KEY") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.searchRequests.Add(1)
		fmt.Fprint(w, `{"count":1,"listings":[{"mlsNumber":"mls-1","listPrice":465000,"lastStatus":"active",
			"address":{"streetNumber":"100","streetName":"Main","streetSuffix":"St","city":"Fort Worth","state":"TX","zip":"76102"},
			"details":{"sqft":2100,"yearBuilt":1985,"propertyType":"Single Family"},
			"map":{"latitude":32.7555,"longitude":-97.3308},
			"images":["https://cdn.example.com/mls-1/1.jpg"]}]}`)
	}))
	t.Cleanup(f.repliers.Close)

	return f
}

// registryFile writes a provider registry pointing at the fake servers.
func (f *fakeProviders) registryFile(t *testing.T) string {
	t.Helper()
	registry := fmt.Sprintf(`providers:
  lightbox:
    id: lightbox
    name: LightBox
    base_url: %s
    auth:
      type: oauth2
      token_url: %s/oauth/token
      client_id_env: LIGHTBOX_CLIENT_ID
      client_secret_env: LIGHTBOX_CLIENT_SECRET
  repliers:
    id: repliers
    name: Repliers
    base_url: %s
    auth:
      type: api_key
      header: REPLIERS-API-KEY
      api_key_env: REPLIERS_API_KEY
`, f.lightbox.URL, f.lightbox.URL, f.repliers.URL)

	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registry), 0o644))
	return path
}

func setTestCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("LIGHTBOX_CLIENT_ID", "test-client")
	t.Setenv("LIGHTBOX_CLIENT_SECRET", "test-secret")
	t.Setenv("REPLIERS_API_KEY", "test-key")
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("LIGHTBOX_CLIENT_ID", "")
	t.Setenv("LIGHTBOX_CLIENT_SECRET", "")
	t.Setenv("REPLIERS_API_KEY", "key")

	_, err := New()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCredentialError(err))
}

func TestResolveAddressEndToEnd(t *testing.T) {
	setTestCredentials(t)
	fakes := newFakeProviders(t)

	client, err := New(WithProviderConfigFile(fakes.registryFile(t)))
	require.NoError(t, err)

	result, err := client.Resolve(context.Background(), properties.Query{
		Address1:   "100 Main St",
		City:       "Fort Worth",
		State:      "TX",
		PostalCode: "76102",
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	got := result.Results[0]
	assert.Equal(t, "parcel-100", got.ParcelID)
	assert.Equal(t, "mls-1", got.Listing.ID)
	require.NotNil(t, got.Valuation.CurrentValue)
	assert.Equal(t, 450000.0, *got.Valuation.CurrentValue)
	assert.True(t, result.Verification.Valid)
	assert.Equal(t, properties.SearchTypeAddress, result.Metadata.SearchType)

	assert.Equal(t, int64(1), fakes.tokenRequests.Load(), "token should be exchanged once and reused")
}

func TestResolveCachesByFingerprint(t *testing.T) {
	setTestCredentials(t)
	fakes := newFakeProviders(t)

	client, err := New(WithProviderConfigFile(fakes.registryFile(t)))
	require.NoError(t, err)

	query := properties.Query{RawText: "homes in Fort Worth"}

	first, err := client.Resolve(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, first.Metadata.FromCache)
	searches := fakes.searchRequests.Load()

	second, err := client.Resolve(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, second.Metadata.FromCache)
	assert.Equal(t, searches, fakes.searchRequests.Load(), "cache hit must not reach the provider")

	client.FlushCache()
	third, err := client.Resolve(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, third.Metadata.FromCache)
}
