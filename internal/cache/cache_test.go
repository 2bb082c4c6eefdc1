package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

func TestFingerprintIdempotent(t *testing.T) {
	q1 := properties.Query{Address1: "123 Main Street", City: "Fort Worth", State: "TX", PostalCode: "76102"}
	q2 := properties.Query{Address1: "123  MAIN ST.", City: "fort worth", State: "tx", PostalCode: "76102"}

	fp1 := Fingerprint(q1, properties.SearchTypeAddress)
	fp2 := Fingerprint(q2, properties.SearchTypeAddress)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintFreeTextNormalization(t *testing.T) {
	q1 := properties.Query{RawText: "Affordable  homes in Houston"}
	q2 := properties.Query{RawText: "affordable homes in houston"}
	assert.Equal(t,
		Fingerprint(q1, properties.SearchTypeGeneral),
		Fingerprint(q2, properties.SearchTypeGeneral),
	)
}

func TestFingerprintDistinguishesQueries(t *testing.T) {
	q1 := properties.Query{RawText: "homes in Houston"}
	q2 := properties.Query{RawText: "homes in Dallas"}
	assert.NotEqual(t,
		Fingerprint(q1, properties.SearchTypeGeneral),
		Fingerprint(q2, properties.SearchTypeGeneral),
	)
}

func TestFingerprintDistinguishesStructuredGeneralQueries(t *testing.T) {
	houston := properties.Query{City: "Houston"}
	austin := properties.Query{City: "Austin"}
	assert.NotEqual(t,
		Fingerprint(houston, properties.SearchTypeGeneral),
		Fingerprint(austin, properties.SearchTypeGeneral),
	)

	// Street-only queries lack a locality and classify GENERAL too; they
	// must not share an entry either.
	main := properties.Query{Address1: "123 Main St"}
	oak := properties.Query{Address1: "456 Oak Ave"}
	assert.NotEqual(t,
		Fingerprint(main, properties.SearchTypeGeneral),
		Fingerprint(oak, properties.SearchTypeGeneral),
	)
}

func TestFingerprintIncludesSearchType(t *testing.T) {
	q := properties.Query{RawText: "123 Main St, Fort Worth, TX"}
	assert.NotEqual(t,
		Fingerprint(q, properties.SearchTypeAddress),
		Fingerprint(q, properties.SearchTypeGeneral),
	)
}

func TestCachePutGet(t *testing.T) {
	c := New()
	results := []properties.Property{{ParcelID: "48439-00123"}}
	verification := properties.Verified("address")
	metadata := properties.Metadata{SearchType: properties.SearchTypeAddress, TotalFound: 1}

	entry := c.Put("fp-1", results, verification, metadata, properties.SearchTypeAddress)
	assert.Equal(t, DefaultAddressTTL, entry.TTL)

	got, found := c.Get("fp-1")
	require.True(t, found)
	assert.Equal(t, "48439-00123", got.Results[0].ParcelID)
	assert.True(t, got.Verification.Valid)
}

func TestCacheMiss(t *testing.T) {
	c := New()
	_, found := c.Get("missing")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := New(WithTTLs(10*time.Millisecond, 10*time.Millisecond))
	c.Put("fp-ttl", nil, properties.Verification{}, properties.Metadata{}, properties.SearchTypeGeneral)

	_, found := c.Get("fp-ttl")
	require.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found = c.Get("fp-ttl")
	assert.False(t, found, "expired entry must read as a miss")
}

func TestCacheTTLPerSearchType(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultAddressTTL, c.TTLFor(properties.SearchTypeAddress))
	assert.Equal(t, DefaultGeneralTTL, c.TTLFor(properties.SearchTypeGeneral))
}

func TestCacheClearAndStats(t *testing.T) {
	c := New()
	c.Put("a", nil, properties.Verification{}, properties.Metadata{}, properties.SearchTypeGeneral)
	c.Put("b", nil, properties.Verification{}, properties.Metadata{}, properties.SearchTypeGeneral)
	assert.Equal(t, 2, c.GetStats().ItemCount)

	c.Delete("a")
	assert.Equal(t, 1, c.GetStats().ItemCount)

	c.Clear()
	assert.Equal(t, 0, c.GetStats().ItemCount)
}
