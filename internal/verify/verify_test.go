package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

func ptr[T any](v T) *T { return &v }

func TestHaversineMeters(t *testing.T) {
	// Fort Worth courthouse to Sundance Square, roughly 260m.
	d := HaversineMeters(32.7584, -97.3324, 32.7563, -97.3326)
	assert.InDelta(t, 233, d, 20)

	// Same point.
	assert.InDelta(t, 0, HaversineMeters(32.75, -97.33, 32.75, -97.33), 0.001)

	// DFW to Houston is roughly 360km.
	d = HaversineMeters(32.7767, -96.7970, 29.7604, -95.3698)
	assert.InDelta(t, 361000, d, 5000)
}

func TestAddressVerificationMatch(t *testing.T) {
	query := properties.Query{
		Address1:   "123 Main Street",
		City:       "Fort Worth",
		State:      "TX",
		PostalCode: "76102",
	}
	merged := properties.Property{
		ParcelID: "p1",
		Address:  properties.Address{Line1: "123 MAIN ST", City: "Fort Worth", State: "TX", PostalCode: "76102"},
	}

	v := New().Address(query, merged)
	assert.True(t, v.Valid)
	assert.Contains(t, v.MatchedFields, "street_number")
	assert.Contains(t, v.MatchedFields, "street_name")
	assert.Contains(t, v.MatchedFields, "postal_code")
	assert.Empty(t, v.Reasons)
}

func TestAddressVerificationMismatch(t *testing.T) {
	query := properties.Query{Address1: "123 Main St", City: "Fort Worth", PostalCode: "76102"}
	merged := properties.Property{
		Address: properties.Address{Line1: "125 Main St", City: "Fort Worth", PostalCode: "76102"},
	}

	v := New().Address(query, merged)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Reasons)
}

func TestAddressVerificationCoordinateTolerance(t *testing.T) {
	base := properties.Query{
		Address1:   "123 Main St",
		City:       "Fort Worth",
		PostalCode: "76102",
		Lat:        ptr(32.7555),
		Lng:        ptr(-97.3308),
	}

	t.Run("within tolerance", func(t *testing.T) {
		merged := properties.Property{
			Address:     properties.Address{Line1: "123 Main St", PostalCode: "76102"},
			Coordinates: &properties.Coordinates{Lat: 32.7557, Lng: -97.3310},
		}
		v := New().Address(base, merged)
		assert.True(t, v.Valid)
		assert.Contains(t, v.MatchedFields, "coordinates")
	})

	t.Run("beyond tolerance", func(t *testing.T) {
		merged := properties.Property{
			Address:     properties.Address{Line1: "123 Main St", PostalCode: "76102"},
			Coordinates: &properties.Coordinates{Lat: 32.80, Lng: -97.40}, // several km away
		}
		v := New().Address(base, merged)
		assert.False(t, v.Valid)
	})

	t.Run("coordinates missing from result", func(t *testing.T) {
		merged := properties.Property{
			Address: properties.Address{Line1: "123 Main St", PostalCode: "76102"},
		}
		v := New().Address(base, merged)
		assert.False(t, v.Valid)
	})
}

func TestAddressVerificationNoPostalRequested(t *testing.T) {
	query := properties.Query{Address1: "123 Main St", City: "Fort Worth"}
	merged := properties.Property{
		Address: properties.Address{Line1: "123 Main St", City: "Fort Worth", PostalCode: "76102"},
	}
	v := New().Address(query, merged)
	assert.True(t, v.Valid)
	assert.NotContains(t, v.MatchedFields, "postal_code")
}

func TestGeneralVerificationAlwaysValid(t *testing.T) {
	v := New().General(properties.SearchFilters{Location: "Houston"},
		[]string{"location", "max_price"}, []string{"status"})
	assert.True(t, v.Valid)
	assert.Contains(t, v.MatchedFields, "provider:location")
	assert.Contains(t, v.MatchedFields, "provider:max_price")
	assert.Contains(t, v.MatchedFields, "post_hoc:status")
}
