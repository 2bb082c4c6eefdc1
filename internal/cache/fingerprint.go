package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Fingerprint computes the deterministic cache key for a query. The query is
// normalized first (lowercased, trimmed, street suffixes folded), the
// resulting fields are sorted, and the concatenation is hashed, so two
// semantically-equal queries always map to the same entry regardless of
// casing or whitespace.
func Fingerprint(q properties.Query, searchType properties.SearchType) string {
	fields := map[string]string{
		"type": string(searchType),
	}

	if addr, ok := q.AddressFields(); ok && searchType == properties.SearchTypeAddress {
		norm := addr.Normalized()
		fields["line1"] = norm.Line1
		fields["city"] = norm.City
		fields["state"] = norm.State
		fields["postal"] = norm.PostalCode
	} else {
		// SearchText renders structured fields when no raw text was given,
		// so structured queries that classify GENERAL keep distinct keys.
		fields["text"] = strings.Join(strings.Fields(strings.ToLower(q.SearchText())), " ")
	}

	if coords, ok := q.Coordinates(); ok {
		// Round to ~1m so float noise does not split entries.
		fields["lat"] = fmt.Sprintf("%.5f", coords.Lat)
		fields["lng"] = fmt.Sprintf("%.5f", coords.Lng)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('|')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
