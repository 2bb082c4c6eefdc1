package properties

import (
	"strings"
)

// SearchType is the classified kind of an inbound query.
type SearchType string

// Search types. A query is classified exactly once and the type drives which
// orchestration path runs.
const (
	SearchTypeAddress SearchType = "ADDRESS"
	SearchTypeGeneral SearchType = "GENERAL"
)

// Query is an inbound property query: either free text, or structured
// address fields with optional coordinates. Immutable once classified.
type Query struct {
	RawText string `json:"query,omitempty"`

	Address1   string `json:"address1,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// IsStructured reports whether any structured address field is populated.
func (q Query) IsStructured() bool {
	return q.Address1 != "" || q.City != "" || q.State != "" || q.PostalCode != ""
}

// IsZero reports whether the query carries no input at all.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.RawText) == "" && !q.IsStructured()
}

// Address returns the structured address view of the query. For free-text
// queries this parses the text; ok is false when no address shape is present.
func (q Query) AddressFields() (Address, bool) {
	if q.IsStructured() {
		return Address{
			Line1:      q.Address1,
			City:       q.City,
			State:      q.State,
			PostalCode: q.PostalCode,
		}, q.Address1 != ""
	}
	return ParseAddressText(q.RawText)
}

// Coordinates returns the query's coordinates when both were supplied.
func (q Query) Coordinates() (Coordinates, bool) {
	if q.Lat == nil || q.Lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *q.Lat, Lng: *q.Lng}, true
}

// SearchText returns the free text to hand to the listings provider: the raw
// text when present, otherwise the structured address rendered as one line.
func (q Query) SearchText() string {
	if text := strings.TrimSpace(q.RawText); text != "" {
		return text
	}
	addr, _ := q.AddressFields()
	return addr.String()
}
