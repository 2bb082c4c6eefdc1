// Package properties defines the canonical property schema shared across the
// parcelscope engine. Every provider adapter normalizes its wire format into
// these types; nothing downstream of the resolver ever sees a raw provider
// response.
package properties

// ProviderID is the unique identifier of an external data provider.
type ProviderID string

// Known provider identifiers.
const (
	// ProviderLightbox is the spatial/property/valuation data provider.
	ProviderLightbox ProviderID = "lightbox"

	// ProviderRepliers is the listings-search provider.
	ProviderRepliers ProviderID = "repliers"
)

// SourceStatus records how a provider participated in a resolution.
type SourceStatus string

// Source statuses recorded in Metadata.DataSources.
const (
	SourceOK       SourceStatus = "ok"
	SourceDegraded SourceStatus = "degraded"
	SourceSkipped  SourceStatus = "skipped"
)

// Property is the canonical, provider-independent property record. Fields
// that no provider supplied stay nil and serialize as explicit nulls, never
// disappear from the payload.
type Property struct {
	ParcelID    string       `json:"parcel_id"`
	Address     Address      `json:"address"`
	Coordinates *Coordinates `json:"coordinates"`
	Structure   Structure    `json:"structure"`
	Valuation   Valuation    `json:"valuation"`
	Listing     Listing      `json:"listing"`
	Sources     []ProviderID `json:"sources"`
}

// Structure holds physical attributes of the improvement on a parcel.
type Structure struct {
	PropertyType *string `json:"property_type"`
	YearBuilt    *int    `json:"year_built"`
	SquareFeet   *int    `json:"square_feet"`
}

// Valuation holds assessed and estimated market values for a parcel.
type Valuation struct {
	CurrentValue  *float64 `json:"current_value"`
	AssessedValue *float64 `json:"assessed_value"`
}

// Listing holds market-listing attributes sourced from the listings provider.
type Listing struct {
	ID       string   `json:"id,omitempty"`
	PriceMax *float64 `json:"price_max"`
	Status   *string  `json:"status"`
	Images   []Image  `json:"images"`
}

// Image is a listing photo reference.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// HasSource reports whether the given provider contributed to this record.
func (p *Property) HasSource(id ProviderID) bool {
	for _, s := range p.Sources {
		if s == id {
			return true
		}
	}
	return false
}

// AddSource records a contributing provider, keeping the set deduplicated.
func (p *Property) AddSource(id ProviderID) {
	if !p.HasSource(id) {
		p.Sources = append(p.Sources, id)
	}
}

// Metadata describes how a resolution was performed.
type Metadata struct {
	SearchType  SearchType                  `json:"search_type"`
	TotalFound  int                         `json:"total_found"`
	FromCache   bool                        `json:"from_cache"`
	DataSources map[ProviderID]SourceStatus `json:"data_sources"`
}

// Result is the engine's full response envelope: zero or more canonical
// records, a verification envelope, and resolution metadata.
type Result struct {
	Results      []Property   `json:"results"`
	Verification Verification `json:"verification"`
	Metadata     Metadata     `json:"metadata"`
}
