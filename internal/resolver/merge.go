package resolver

import (
	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// mergeParcel builds a canonical record from the property-data provider's
// parcel, structure, and valuation responses. The property-data provider is
// authoritative for parcel identity, address, and coordinates.
func mergeParcel(parcel *providers.Parcel, structure *properties.Structure, valuation *properties.Valuation) properties.Property {
	p := properties.Property{
		ParcelID:    parcel.ID,
		Address:     parcel.Address,
		Coordinates: parcel.Coordinates,
	}
	if structure != nil {
		p.Structure = *structure
	}
	if valuation != nil {
		p.Valuation = *valuation
	}
	p.AddSource(properties.ProviderLightbox)
	return p
}

// mergeListing builds a canonical record from a listings-search result alone,
// used when no property-data enrichment is available.
func mergeListing(listing providers.Listing) properties.Property {
	p := properties.Property{
		Address:     listing.Address,
		Coordinates: listing.Coordinates,
		Structure: properties.Structure{
			PropertyType: listing.PropertyType,
			YearBuilt:    listing.YearBuilt,
			SquareFeet:   listing.SquareFeet,
		},
		Listing: properties.Listing{
			ID:       listing.ID,
			PriceMax: listing.Price,
			Status:   listing.Status,
			Images:   listing.Images,
		},
	}
	p.AddSource(properties.ProviderRepliers)
	return p
}

// attachListing folds listing attributes into a record built from the
// property-data provider. Property-data fields win wherever both providers
// supplied a value; the listing only fills gaps and contributes the
// market-listing block, which the property-data provider never has.
func attachListing(p *properties.Property, listing providers.Listing) {
	p.Listing = properties.Listing{
		ID:       listing.ID,
		PriceMax: listing.Price,
		Status:   listing.Status,
		Images:   listing.Images,
	}
	if p.Structure.PropertyType == nil {
		p.Structure.PropertyType = listing.PropertyType
	}
	if p.Structure.YearBuilt == nil {
		p.Structure.YearBuilt = listing.YearBuilt
	}
	if p.Structure.SquareFeet == nil {
		p.Structure.SquareFeet = listing.SquareFeet
	}
	if p.Coordinates == nil {
		p.Coordinates = listing.Coordinates
	}
	p.AddSource(properties.ProviderRepliers)
}

// attachParcel folds property-data enrichment into a record built from a
// listing. Parcel identity, structure, and valuation from the property-data
// provider overwrite listing-derived values; the listing block is untouched.
func attachParcel(p *properties.Property, parcel *providers.Parcel, structure *properties.Structure, valuation *properties.Valuation) {
	p.ParcelID = parcel.ID
	if parcel.Coordinates != nil {
		p.Coordinates = parcel.Coordinates
	}
	if structure != nil {
		if structure.PropertyType != nil {
			p.Structure.PropertyType = structure.PropertyType
		}
		if structure.YearBuilt != nil {
			p.Structure.YearBuilt = structure.YearBuilt
		}
		if structure.SquareFeet != nil {
			p.Structure.SquareFeet = structure.SquareFeet
		}
	}
	if valuation != nil {
		p.Valuation = *valuation
	}
	p.AddSource(properties.ProviderLightbox)
}

// sameProperty reports whether a listing refers to the same property as a
// parcel-derived record, using normalized street line and postal code.
func sameProperty(a, b properties.Address) bool {
	if a.PostalCode != "" && b.PostalCode != "" && a.PostalCode != b.PostalCode {
		return false
	}
	return properties.NormalizeStreetLine(a.Line1) == properties.NormalizeStreetLine(b.Line1)
}
