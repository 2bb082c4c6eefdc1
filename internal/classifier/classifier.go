// Package classifier decides whether an inbound query is an exact address
// lookup or a general listings search. Classification is a pure function so
// the rules stay independently testable; ambiguity is never an error and
// falls back to GENERAL.
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Classify determines the search type for a query. A query is ADDRESS when
// it supplies a recognizable street-number + street-name structure together
// with a locality (city/state or postal code), either as structured fields
// or as free text with a comma-separated locality. Everything else,
// including a bare city name, is GENERAL.
func Classify(q properties.Query) properties.SearchType {
	if q.IsStructured() {
		addr, ok := q.AddressFields()
		if ok && addr.StreetNumber() != "" && addr.StreetName() != "" && hasLocality(addr) {
			return properties.SearchTypeAddress
		}
		return properties.SearchTypeGeneral
	}

	if _, ok := properties.ParseAddressText(q.RawText); ok {
		return properties.SearchTypeAddress
	}
	return properties.SearchTypeGeneral
}

func hasLocality(addr properties.Address) bool {
	if addr.PostalCode != "" {
		return true
	}
	return addr.City != ""
}

var (
	// priceRe matches "under $300k", "below 250,000", "over 1.2m", and the
	// "between X and Y" form via two captures.
	priceRe   = regexp.MustCompile(`(?i)\b(under|below|over|above|around)\s+\$?([\d,.]+)\s*([km])?\b`)
	inPlaceRe = regexp.MustCompile(`(?i)\bin\s+([a-z][a-z .'-]+?)(?:$|,|\s+(?:under|below|over|above|around|for)\b)`)
)

// statusKeywords maps query phrases to listing statuses understood by the
// listings provider. Scanned in order; the first match wins, so the
// two-word phrases come before their looser one-word variants.
var statusKeywords = []struct {
	keyword string
	status  string
}{
	{"for sale", "active"},
	{"for rent", "rental"},
	{"pending", "pending"},
	{"sold", "sold"},
	{"active", "active"},
	{"rental", "rental"},
}

// ParseFilters extracts listing-search filters from a GENERAL free-text
// query. The remaining location phrase becomes the provider's location
// parameter; unrecognized qualifiers are simply ignored.
func ParseFilters(rawText string) properties.SearchFilters {
	text := strings.TrimSpace(rawText)
	var f properties.SearchFilters

	if m := inPlaceRe.FindStringSubmatch(text); len(m) > 1 {
		f.Location = strings.TrimSpace(m[1])
	} else if text != "" && !strings.ContainsAny(text, ",") {
		// A bare phrase like "Houston" is itself the location.
		if words := strings.Fields(text); len(words) <= 3 && !startsWithDigit(text) {
			f.Location = text
		}
	}

	for _, m := range priceRe.FindAllStringSubmatch(text, 2) {
		amount, ok := parseAmount(m[2], m[3])
		if !ok {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "under", "below":
			f.MaxPrice = &amount
		case "over", "above":
			f.MinPrice = &amount
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range statusKeywords {
		if strings.Contains(lower, kw.keyword) {
			s := kw.status
			f.Status = &s
			break
		}
	}

	return f
}

// parseAmount converts "300" + "k" to 300000, "1.2" + "m" to 1200000.
func parseAmount(num, suffix string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(suffix) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	}
	return value, true
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
