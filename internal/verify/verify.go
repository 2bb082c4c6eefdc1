// Package verify cross-checks a merged property record against the query
// that produced it and builds the confidence envelope attached to every
// response.
package verify

import (
	"fmt"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

// DefaultToleranceMeters is the maximum distance between supplied and
// resolved coordinates for an address lookup to verify.
const DefaultToleranceMeters = 500.0

// Verifier validates merged records. A zero-value Verifier uses the default
// coordinate tolerance.
type Verifier struct {
	ToleranceMeters float64
}

// New creates a Verifier with the default tolerance.
func New() *Verifier {
	return &Verifier{ToleranceMeters: DefaultToleranceMeters}
}

func (v *Verifier) tolerance() float64 {
	if v.ToleranceMeters > 0 {
		return v.ToleranceMeters
	}
	return DefaultToleranceMeters
}

// Address verifies an ADDRESS resolution: the resolved record must match the
// requested street number, street name, and postal code (case-insensitive,
// suffix variants folded), and when the query supplied coordinates the
// resolved point must lie within the tolerance radius.
func (v *Verifier) Address(query properties.Query, merged properties.Property) properties.Verification {
	requested, ok := query.AddressFields()
	if !ok {
		return properties.Invalid("query does not carry a structured address")
	}

	var matched []string
	var reasons []string

	reqNorm := requested.Normalized()
	gotNorm := merged.Address.Normalized()

	if requested.StreetNumber() != "" && requested.StreetNumber() == merged.Address.StreetNumber() {
		matched = append(matched, "street_number")
	} else {
		reasons = append(reasons, fmt.Sprintf("street number mismatch: requested %q, resolved %q",
			requested.StreetNumber(), merged.Address.StreetNumber()))
	}

	if requested.StreetName() != "" && requested.StreetName() == merged.Address.StreetName() {
		matched = append(matched, "street_name")
	} else {
		reasons = append(reasons, fmt.Sprintf("street name mismatch: requested %q, resolved %q",
			requested.StreetName(), merged.Address.StreetName()))
	}

	// Postal code only gates validity when the caller supplied one.
	if reqNorm.PostalCode != "" {
		if reqNorm.PostalCode == gotNorm.PostalCode {
			matched = append(matched, "postal_code")
		} else {
			reasons = append(reasons, fmt.Sprintf("postal code mismatch: requested %q, resolved %q",
				reqNorm.PostalCode, gotNorm.PostalCode))
		}
	}

	if coords, ok := query.Coordinates(); ok {
		if merged.Coordinates == nil {
			reasons = append(reasons, "query supplied coordinates but none were resolved")
		} else {
			distance := HaversineMeters(coords.Lat, coords.Lng, merged.Coordinates.Lat, merged.Coordinates.Lng)
			if distance <= v.tolerance() {
				matched = append(matched, "coordinates")
			} else {
				reasons = append(reasons, fmt.Sprintf("resolved coordinates %.0fm from supplied point (tolerance %.0fm)",
					distance, v.tolerance()))
			}
		}
	}

	return properties.Verification{
		Valid:         len(reasons) == 0,
		Reasons:       reasons,
		MatchedFields: matched,
	}
}

// General verifies a GENERAL resolution. There is no single expected record,
// so the envelope is always valid; MatchedFields records which filters the
// provider honored as query parameters versus those applied in-process.
func (v *Verifier) General(filters properties.SearchFilters, pushedDown, postHoc []string) properties.Verification {
	verification := properties.Verification{Valid: true}
	for _, f := range pushedDown {
		verification.MatchedFields = append(verification.MatchedFields, "provider:"+f)
	}
	for _, f := range postHoc {
		verification.MatchedFields = append(verification.MatchedFields, "post_hoc:"+f)
	}
	return verification
}
