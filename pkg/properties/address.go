package properties

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Address is a normalized postal address.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var titleCaser = cases.Title(language.AmericanEnglish)

// String renders the address as a single display line.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	if a.Line1 != "" {
		parts = append(parts, titleCaser.String(strings.ToLower(a.Line1)))
	}
	if a.City != "" {
		parts = append(parts, titleCaser.String(strings.ToLower(a.City)))
	}
	if a.State != "" {
		parts = append(parts, strings.ToUpper(a.State))
	}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether no address component is set.
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.State == "" && a.PostalCode == ""
}

// Normalized returns a canonical lowercase form used for comparison and
// cache fingerprinting. Whitespace is collapsed and common street suffix
// variants are folded to one spelling, so "123 Main St." and
// "123  main street" normalize identically.
func (a Address) Normalized() Address {
	return Address{
		Line1:      NormalizeStreetLine(a.Line1),
		City:       normalizeToken(a.City),
		State:      normalizeToken(a.State),
		PostalCode: normalizeToken(a.PostalCode),
	}
}

// StreetNumber returns the leading house number of Line1, or "".
func (a Address) StreetNumber() string {
	fields := strings.Fields(strings.TrimSpace(a.Line1))
	if len(fields) == 0 {
		return ""
	}
	if !isDigits(fields[0]) {
		return ""
	}
	return fields[0]
}

// StreetName returns Line1 without its leading house number, normalized.
func (a Address) StreetName() string {
	line := NormalizeStreetLine(a.Line1)
	fields := strings.Fields(line)
	if len(fields) > 0 && isDigits(fields[0]) {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// streetSuffixes maps common suffix variants to a canonical spelling,
// following USPS Publication 28 abbreviations.
var streetSuffixes = map[string]string{
	"street":    "st",
	"st":        "st",
	"avenue":    "ave",
	"ave":       "ave",
	"av":        "ave",
	"boulevard": "blvd",
	"blvd":      "blvd",
	"drive":     "dr",
	"dr":        "dr",
	"lane":      "ln",
	"ln":        "ln",
	"road":      "rd",
	"rd":        "rd",
	"court":     "ct",
	"ct":        "ct",
	"circle":    "cir",
	"cir":       "cir",
	"place":     "pl",
	"pl":        "pl",
	"parkway":   "pkwy",
	"pkwy":      "pkwy",
	"highway":   "hwy",
	"hwy":       "hwy",
	"terrace":   "ter",
	"ter":       "ter",
	"trail":     "trl",
	"trl":       "trl",
	"way":       "way",
}

// NormalizeStreetLine lowercases, strips punctuation, collapses whitespace,
// and folds street suffix variants in a street address line.
func NormalizeStreetLine(line string) string {
	fields := strings.Fields(stripPunct(strings.ToLower(line)))
	for i, f := range fields {
		if canonical, ok := streetSuffixes[f]; ok {
			fields[i] = canonical
		}
	}
	return strings.Join(fields, " ")
}

// normalizeToken lowercases, trims, and collapses inner whitespace.
func normalizeToken(s string) string {
	return strings.Join(strings.Fields(stripPunct(strings.ToLower(s))), " ")
}

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', ',', '#':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseAddressText splits free text like "1600 Amphitheatre Parkway,
// Mountain View, CA 94043" into a structured address. It returns false when
// the text does not look like a street address.
func ParseAddressText(text string) (Address, bool) {
	parts := strings.Split(text, ",")
	if len(parts) < 2 {
		return Address{}, false
	}

	line1 := strings.TrimSpace(parts[0])
	fields := strings.Fields(line1)
	if len(fields) < 2 || !isDigits(fields[0]) {
		return Address{}, false
	}

	addr := Address{Line1: line1, City: strings.TrimSpace(parts[1])}

	if len(parts) > 2 {
		// Remaining locality: "CA 94043", "CA", or "CA, 94043".
		rest := strings.Fields(strings.Join(parts[2:], " "))
		for _, f := range rest {
			switch {
			case len(f) == 2 && !isDigits(f):
				addr.State = strings.ToUpper(f)
			case len(f) == 5 && isDigits(f):
				addr.PostalCode = f
			}
		}
	}

	return addr, true
}

// Validate checks that the address carries enough signal to resolve.
func (a Address) Validate() error {
	if a.Line1 == "" {
		return fmt.Errorf("address line1 is required")
	}
	if a.City == "" && a.PostalCode == "" {
		return fmt.Errorf("address requires a city or postal code")
	}
	return nil
}
