package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/parcelscope/parcelscope/internal/providers"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// resolveAddress runs the ADDRESS call chain: parcel lookup, then structure
// and valuation in parallel, then a best-effort listings enrichment. Every
// property-data call is primary and fatal on failure; the listings call only
// degrades the result.
func (r *Resolver) resolveAddress(ctx context.Context, query properties.Query) ([]properties.Property, properties.Verification, map[properties.ProviderID]properties.SourceStatus, error) {
	addr, ok := query.AddressFields()
	if !ok {
		return nil, properties.Verification{}, nil,
			pkgerrors.NewValidationError("query", query.RawText, "address query missing address fields")
	}

	dataSources := map[properties.ProviderID]properties.SourceStatus{
		properties.ProviderLightbox: properties.SourceSkipped,
		properties.ProviderRepliers: properties.SourceSkipped,
	}

	parcel, err := r.lookupParcel(ctx, query, addr)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			// A clean miss is an empty result, not a pipeline failure.
			dataSources[properties.ProviderLightbox] = properties.SourceOK
			verification := properties.Invalid("no parcel matched the requested address")
			return []properties.Property{}, verification, dataSources, nil
		}
		dataSources[properties.ProviderLightbox] = properties.SourceDegraded
		return nil, properties.Verification{}, nil, pkgerrors.NewResolutionError(
			string(properties.SearchTypeAddress), string(properties.ProviderLightbox),
			"parcel_lookup", nil, err)
	}
	partial := []string{"lightbox:parcel"}

	var (
		structure *properties.Structure
		valuation *properties.Valuation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := r.property.Structure(gctx, parcel.ID)
		if err != nil && !pkgerrors.IsNotFound(err) {
			return pkgerrors.NewResolutionError(
				string(properties.SearchTypeAddress), string(properties.ProviderLightbox),
				"structure", partial, err)
		}
		structure = s
		return nil
	})
	g.Go(func() error {
		v, err := r.property.Valuation(gctx, parcel.ID)
		if err != nil && !pkgerrors.IsNotFound(err) {
			return pkgerrors.NewResolutionError(
				string(properties.SearchTypeAddress), string(properties.ProviderLightbox),
				"valuation", partial, err)
		}
		valuation = v
		return nil
	})
	if err := g.Wait(); err != nil {
		dataSources[properties.ProviderLightbox] = properties.SourceDegraded
		return nil, properties.Verification{}, nil, err
	}
	dataSources[properties.ProviderLightbox] = properties.SourceOK

	merged := mergeParcel(parcel, structure, valuation)

	r.enrichAddressResult(ctx, &merged, dataSources)

	verification := r.verifier.Address(query, merged)
	return []properties.Property{merged}, verification, dataSources, nil
}

// lookupParcel resolves the address to a parcel. When the address lookup
// misses and the caller supplied coordinates, a spatial lookup disambiguates
// before the miss is accepted.
func (r *Resolver) lookupParcel(ctx context.Context, query properties.Query, addr properties.Address) (*providers.Parcel, error) {
	parcel, err := r.property.LookupByAddress(ctx, addr)
	if err == nil {
		return parcel, nil
	}
	coords, ok := query.Coordinates()
	if !ok || !pkgerrors.IsNotFound(err) {
		return nil, err
	}
	candidates, serr := r.property.LookupBySpatial(ctx, coords.Lat, coords.Lng)
	if serr != nil || len(candidates) == 0 {
		return nil, err
	}
	r.logger.Debug().
		Str("parcel_id", candidates[0].ID).
		Msg("Parcel resolved by spatial fallback")
	return &candidates[0], nil
}

// enrichAddressResult attaches any active listing at the resolved address.
// Failures here never fail the request.
func (r *Resolver) enrichAddressResult(ctx context.Context, merged *properties.Property, dataSources map[properties.ProviderID]properties.SourceStatus) {
	filters := properties.SearchFilters{Location: merged.Address.City}
	listings, err := r.listings.SearchByLocation(ctx, merged.Address.Line1, filters)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			dataSources[properties.ProviderRepliers] = properties.SourceOK
			return
		}
		r.logger.Warn().Err(err).
			Str("provider", string(properties.ProviderRepliers)).
			Msg("Listing enrichment failed")
		dataSources[properties.ProviderRepliers] = properties.SourceDegraded
		return
	}
	dataSources[properties.ProviderRepliers] = properties.SourceOK

	for _, listing := range listings {
		if sameProperty(listing.Address, merged.Address) {
			r.attachListingWithImages(ctx, merged, listing)
			return
		}
	}
}

// attachListingWithImages merges a matched listing and, when the search
// response carried no photos, fetches them separately. Image fetch failures
// are silent; the listing itself already landed.
func (r *Resolver) attachListingWithImages(ctx context.Context, merged *properties.Property, listing providers.Listing) {
	if len(listing.Images) == 0 && listing.ID != "" {
		images, err := r.listings.Images(ctx, listing.ID)
		if err == nil {
			listing.Images = images
		}
	}
	attachListing(merged, listing)
}
