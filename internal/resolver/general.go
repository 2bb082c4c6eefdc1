package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/parcelscope/parcelscope/internal/classifier"
	"github.com/parcelscope/parcelscope/internal/providers"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// resolveGeneral runs the GENERAL call chain: a listings search is primary,
// then the top results receive best-effort property-data enrichment under a
// concurrency bound. Filters the provider accepted are reported as pushed
// down; filters re-applied in-process that actually removed results are
// reported as post-hoc.
func (r *Resolver) resolveGeneral(ctx context.Context, query properties.Query) ([]properties.Property, properties.Verification, map[properties.ProviderID]properties.SourceStatus, error) {
	filters := classifier.ParseFilters(query.SearchText())

	dataSources := map[properties.ProviderID]properties.SourceStatus{
		properties.ProviderLightbox: properties.SourceSkipped,
		properties.ProviderRepliers: properties.SourceSkipped,
	}

	listings, err := r.listings.SearchByLocation(ctx, query.SearchText(), filters)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			dataSources[properties.ProviderRepliers] = properties.SourceOK
			verification := r.verifier.General(filters, pushedDownFields(filters), nil)
			return []properties.Property{}, verification, dataSources, nil
		}
		dataSources[properties.ProviderRepliers] = properties.SourceDegraded
		return nil, properties.Verification{}, nil, pkgerrors.NewResolutionError(
			string(properties.SearchTypeGeneral), string(properties.ProviderRepliers),
			"listing_search", nil, err)
	}
	dataSources[properties.ProviderRepliers] = properties.SourceOK

	listings, postHoc := applyFilters(listings, filters)

	results := make([]properties.Property, len(listings))
	for i, listing := range listings {
		results[i] = mergeListing(listing)
	}

	if degraded := r.enrichGeneralResults(ctx, listings, results); degraded {
		dataSources[properties.ProviderLightbox] = properties.SourceDegraded
	} else if len(listings) > 0 {
		dataSources[properties.ProviderLightbox] = properties.SourceOK
	}

	verification := r.verifier.General(filters, pushedDownFields(filters), postHoc)
	return results, verification, dataSources, nil
}

// enrichGeneralResults fetches parcel, structure, and valuation data for the
// top-N listings under a concurrency bound. Individual failures leave that
// record listing-only and mark the provider degraded; nothing here fails the
// request.
func (r *Resolver) enrichGeneralResults(ctx context.Context, listings []providers.Listing, results []properties.Property) bool {
	n := r.topN
	if n > len(listings) {
		n = len(listings)
	}
	if n == 0 {
		return false
	}

	var g errgroup.Group
	g.SetLimit(r.enrichLimit)
	degraded := make([]bool, n)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := r.enrichOne(ctx, listings[i], &results[i]); err != nil {
				r.logger.Debug().Err(err).
					Str("listing_id", listings[i].ID).
					Msg("Property enrichment failed")
				degraded[i] = true
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	for _, d := range degraded {
		if d {
			return true
		}
	}
	return false
}

// enrichOne resolves one listing's address to a parcel and attaches structure
// and valuation. A parcel miss is not an error; the listing simply stays
// unenriched.
func (r *Resolver) enrichOne(ctx context.Context, listing providers.Listing, result *properties.Property) error {
	parcel, err := r.property.LookupByAddress(ctx, listing.Address)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	structure, err := r.property.Structure(ctx, parcel.ID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}
	valuation, err := r.property.Valuation(ctx, parcel.ID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}

	attachParcel(result, parcel, structure, valuation)
	return nil
}

// applyFilters re-applies price and status constraints in-process and reports
// which fields actually removed a provider-returned listing. Providers are
// expected to honor pushed-down filters; this is the backstop when they do
// not.
func applyFilters(listings []providers.Listing, filters properties.SearchFilters) ([]providers.Listing, []string) {
	if filters.IsZero() {
		return listings, nil
	}

	kept := listings[:0:len(listings)]
	dropped := map[string]bool{}
	for _, l := range listings {
		if filters.MinPrice != nil && l.Price != nil && *l.Price < *filters.MinPrice {
			dropped["min_price"] = true
			continue
		}
		if filters.MaxPrice != nil && l.Price != nil && *l.Price > *filters.MaxPrice {
			dropped["max_price"] = true
			continue
		}
		if filters.Status != nil && l.Status != nil && *l.Status != *filters.Status {
			dropped["status"] = true
			continue
		}
		kept = append(kept, l)
	}

	var postHoc []string
	for _, field := range []string{"min_price", "max_price", "status"} {
		if dropped[field] {
			postHoc = append(postHoc, field)
		}
	}
	return kept, postHoc
}

// pushedDownFields lists the filter fields forwarded to the listings provider
// as native query parameters.
func pushedDownFields(filters properties.SearchFilters) []string {
	var fields []string
	if filters.Location != "" {
		fields = append(fields, "location")
	}
	if filters.MinPrice != nil {
		fields = append(fields, "min_price")
	}
	if filters.MaxPrice != nil {
		fields = append(fields, "max_price")
	}
	if filters.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}
