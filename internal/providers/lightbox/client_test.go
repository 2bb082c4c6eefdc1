package lightbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/transport"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

const parcelsJSON = `{
  "parcels": [
    {
      "id": "0201MARHE2774",
      "fips": "48439",
      "score": 0.98,
      "location": {
        "streetAddress": "123 Main St",
        "locality": "Fort Worth",
        "regionCode": "TX",
        "postalCode": "76102"
      },
      "geometry": {
        "representativePoint": {"latitude": 32.7555, "longitude": -97.3308}
      }
    }
  ]
}`

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := &providers.Provider{
		ID:      properties.ProviderLightbox,
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}
	return New(config, transport.StaticToken("tok-test")), srv
}

func TestLookupByAddress(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(parcelsJSON))
	}))

	addr := properties.Address{Line1: "123 Main St", City: "Fort Worth", State: "TX", PostalCode: "76102"}
	parcel, err := client.LookupByAddress(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, "/parcels/address", gotPath)
	assert.Equal(t, "Bearer tok-test", gotAuth)
	assert.Equal(t, "0201MARHE2774", parcel.ID)
	assert.Equal(t, "Fort Worth", parcel.Address.City)
	require.NotNil(t, parcel.Coordinates)
	assert.InDelta(t, 32.7555, parcel.Coordinates.Lat, 1e-6)
}

func TestLookupByAddressNoMatch(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"parcels":[]}`))
	}))

	addr := properties.Address{Line1: "1 Nowhere Ln", City: "Nowhere"}
	_, err := client.LookupByAddress(context.Background(), addr)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLookupByAddressInvalidInput(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid input")
	}))

	_, err := client.LookupByAddress(context.Background(), properties.Address{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestLookupBySpatial(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "POINT")
		w.Write([]byte(parcelsJSON))
	}))

	parcels, err := client.LookupBySpatial(context.Background(), 32.7555, -97.3308)
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "0201MARHE2774", parcels[0].ID)
}

func TestStructure(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parcels/0201MARHE2774/structure", r.URL.Path)
		w.Write([]byte(`{"landUseDescription":"Single Family Residential","yearBuilt":1962,"totalSquareFootage":1850}`))
	}))

	structure, err := client.Structure(context.Background(), "0201MARHE2774")
	require.NoError(t, err)
	require.NotNil(t, structure.YearBuilt)
	assert.Equal(t, 1962, *structure.YearBuilt)
	require.NotNil(t, structure.SquareFeet)
	assert.Equal(t, 1850, *structure.SquareFeet)
	require.NotNil(t, structure.PropertyType)
	assert.Equal(t, "Single Family Residential", *structure.PropertyType)
}

func TestValuation(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"marketValue":425000,"assessedValue":398500}`))
	}))

	valuation, err := client.Valuation(context.Background(), "0201MARHE2774")
	require.NoError(t, err)
	require.NotNil(t, valuation.CurrentValue)
	assert.Equal(t, 425000.0, *valuation.CurrentValue)
	require.NotNil(t, valuation.AssessedValue)
	assert.Equal(t, 398500.0, *valuation.AssessedValue)
}

func TestProviderErrorIsTyped(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))

	_, err := client.Structure(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *pkgerrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "lightbox", apiErr.Provider)
}
