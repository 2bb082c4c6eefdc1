package properties

// SearchFilters are the listing-search constraints parsed from a GENERAL
// query. Zero-valued fields mean "no constraint".
type SearchFilters struct {
	Location string   `json:"location,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Location == "" && f.MinPrice == nil && f.MaxPrice == nil && f.Status == nil
}
