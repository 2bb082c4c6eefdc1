// Package resolver drives the multi-step provider call chain for a query:
// cache check, dispatch by search type, merge, verification, cache store.
// Primary provider failures are fatal for the request; enrichment failures
// degrade the result and are recorded in the response metadata.
package resolver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/parcelscope/parcelscope/internal/cache"
	"github.com/parcelscope/parcelscope/internal/classifier"
	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/verify"
	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/logging"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Defaults for general-search enrichment.
const (
	DefaultTopN        = 5
	DefaultEnrichLimit = 3
)

// Resolver orchestrates provider calls into canonical results. All shared
// state (cache, credential-backed clients) is injected at construction;
// the resolver itself is stateless per request and safe for concurrent use.
type Resolver struct {
	property providers.PropertyData
	listings providers.ListingSearch
	cache    *cache.Cache
	verifier *verify.Verifier
	logger   *zerolog.Logger

	topN        int
	enrichLimit int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTopN sets how many general-search results receive property-data
// enrichment.
func WithTopN(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.topN = n
		}
	}
}

// WithEnrichLimit bounds concurrent enrichment calls.
func WithEnrichLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.enrichLimit = n
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver. The cache and verifier are created at process
// start and passed by reference; the resolver never reaches for globals.
func New(property providers.PropertyData, listings providers.ListingSearch, responseCache *cache.Cache, verifier *verify.Verifier, opts ...Option) *Resolver {
	r := &Resolver{
		property:    property,
		listings:    listings,
		cache:       responseCache,
		verifier:    verifier,
		logger:      logging.Default(),
		topN:        DefaultTopN,
		enrichLimit: DefaultEnrichLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies the query, consults the cache, and on a miss runs the
// provider call chain for the classified search type.
func (r *Resolver) Resolve(ctx context.Context, query properties.Query) (*properties.Result, error) {
	if query.IsZero() {
		return nil, pkgerrors.NewValidationError("query", query, "empty query")
	}

	searchType := classifier.Classify(query)
	fingerprint := cache.Fingerprint(query, searchType)

	log := r.logger.With().
		Str("search_type", string(searchType)).
		Str("fingerprint", fingerprint[:12]).
		Logger()

	if entry, found := r.cache.Get(fingerprint); found {
		log.Debug().Msg("Cache hit")
		metadata := entry.Metadata
		metadata.FromCache = true
		return &properties.Result{
			Results:      entry.Results,
			Verification: entry.Verification,
			Metadata:     metadata,
		}, nil
	}

	var (
		results      []properties.Property
		verification properties.Verification
		dataSources  map[properties.ProviderID]properties.SourceStatus
		err          error
	)

	switch searchType {
	case properties.SearchTypeAddress:
		results, verification, dataSources, err = r.resolveAddress(ctx, query)
	default:
		results, verification, dataSources, err = r.resolveGeneral(ctx, query)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Resolution failed")
		return nil, err
	}

	metadata := properties.Metadata{
		SearchType:  searchType,
		TotalFound:  len(results),
		FromCache:   false,
		DataSources: dataSources,
	}

	r.cache.Put(fingerprint, results, verification, metadata, searchType)
	log.Debug().Int("total_found", len(results)).Msg("Resolution complete")

	return &properties.Result{
		Results:      results,
		Verification: verification,
		Metadata:     metadata,
	}, nil
}
