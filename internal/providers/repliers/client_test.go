package repliers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelscope/parcelscope/internal/providers"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

const searchJSON = `{
  "count": 2,
  "listings": [
    {
      "mlsNumber": "20456789",
      "listPrice": 289000,
      "lastStatus": "active",
      "address": {
        "streetNumber": "500",
        "streetName": "Elm",
        "streetSuffix": "Dr",
        "city": "Houston",
        "state": "TX",
        "zip": "77002"
      },
      "details": {"sqft": 1400, "yearBuilt": 1998, "propertyType": "Detached"},
      "map": {"latitude": 29.7604, "longitude": -95.3698},
      "images": ["https://cdn.repliers.io/20456789/1.jpg"]
    },
    {
      "mlsNumber": "20456790",
      "listPrice": 265000,
      "lastStatus": "active",
      "address": {
        "streetNumber": "72",
        "streetName": "Oak",
        "streetSuffix": "Ln",
        "city": "Houston",
        "state": "TX",
        "zip": "77003"
      },
      "details": {},
      "map": {},
      "images": []
    }
  ]
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("REPLIERS_API_KEY", "key-test")
	config := &providers.Provider{
		ID:      properties.ProviderRepliers,
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Auth: providers.Auth{
			Type:      providers.AuthAPIKey,
			Header:    "REPLIERS-API-KEY",
			APIKeyEnv: "REPLIERS_API_KEY",
		},
	}
	client, err := New(config)
	require.NoError(t, err)
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("REPLIERS_API_KEY", "")
	config := &providers.Provider{
		ID:   properties.ProviderRepliers,
		Auth: providers.Auth{Type: providers.AuthAPIKey, APIKeyEnv: "REPLIERS_API_KEY"},
	}
	_, err := New(config)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCredentialError(err))
}

func TestSearchByLocation(t *testing.T) {
	var gotQuery map[string][]string
	var gotKey string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("REPLIERS-API-KEY")
		w.Write([]byte(searchJSON))
	}))

	maxPrice := 300000.0
	status := "active"
	filters := properties.SearchFilters{Location: "Houston", MaxPrice: &maxPrice, Status: &status}

	listings, err := client.SearchByLocation(context.Background(), "affordable homes in Houston", filters)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "key-test", gotKey)
	assert.Equal(t, []string{"Houston"}, gotQuery["city"])
	assert.Equal(t, []string{"300000"}, gotQuery["maxPrice"])
	assert.Equal(t, []string{"active"}, gotQuery["status"])

	first := listings[0]
	assert.Equal(t, "20456789", first.ID)
	assert.Equal(t, "500 Elm Dr", first.Address.Line1)
	require.NotNil(t, first.Price)
	assert.Equal(t, 289000.0, *first.Price)
	require.NotNil(t, first.Coordinates)
	assert.InDelta(t, 29.7604, first.Coordinates.Lat, 1e-6)
	require.Len(t, first.Images, 1)

	// Absent optional fields stay nil, never zero.
	second := listings[1]
	assert.Nil(t, second.SquareFeet)
	assert.Nil(t, second.Coordinates)
}

func TestImages(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/20456789/images", r.URL.Path)
		w.Write([]byte(`{"images":[{"url":"https://cdn.repliers.io/20456789/1.jpg","caption":"Front"}]}`))
	}))

	images, err := client.Images(context.Background(), "20456789")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "Front", images[0].Caption)
}

func TestImagesEmptyID(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	_, err := client.Images(context.Background(), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestSearchProviderError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))

	_, err := client.SearchByLocation(context.Background(), "Houston", properties.SearchFilters{})
	require.Error(t, err)

	var apiErr *pkgerrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
