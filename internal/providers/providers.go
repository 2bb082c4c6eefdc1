// Package providers defines the capability interfaces and intermediate
// structures for external data providers. Each provider client translates
// the engine's canonical requests into its vendor wire format and parses
// responses into these intermediate types; raw provider shapes never leave
// the client boundary.
package providers

import (
	"context"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Parcel is the intermediate result of a spatial or address lookup against
// the property-data provider.
type Parcel struct {
	ID          string
	Address     properties.Address
	Coordinates *properties.Coordinates
	Score       float64
}

// Listing is the intermediate result of a listings search.
type Listing struct {
	ID           string
	Address      properties.Address
	Coordinates  *properties.Coordinates
	Price        *float64
	Status       *string
	SquareFeet   *int
	YearBuilt    *int
	PropertyType *string
	Images       []properties.Image
}

// PropertyData is the capability set of the spatial/property/valuation
// provider.
type PropertyData interface {
	// LookupByAddress resolves a postal address to its best parcel match.
	LookupByAddress(ctx context.Context, addr properties.Address) (*Parcel, error)

	// LookupBySpatial returns parcel candidates containing or nearest to a
	// coordinate.
	LookupBySpatial(ctx context.Context, lat, lng float64) ([]Parcel, error)

	// Structure returns the physical attributes of a parcel's improvement.
	Structure(ctx context.Context, parcelID string) (*properties.Structure, error)

	// Valuation returns current and assessed values for a parcel.
	Valuation(ctx context.Context, parcelID string) (*properties.Valuation, error)
}

// ListingSearch is the capability set of the listings-search provider.
type ListingSearch interface {
	// SearchByLocation runs a free-text listings search with optional
	// filters. Filters the provider cannot express are applied by the
	// caller afterwards.
	SearchByLocation(ctx context.Context, text string, filters properties.SearchFilters) ([]Listing, error)

	// Images returns the photo set for a listing.
	Images(ctx context.Context, listingID string) ([]properties.Image, error)
}
