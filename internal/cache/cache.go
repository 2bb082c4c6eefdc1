// Package cache memoizes orchestration results keyed by a deterministic
// fingerprint of the normalized query. It uses patrickmn/go-cache for
// TTL-based expiry; entries past their TTL read as a miss and are
// overwritten by the next resolution.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Default TTLs per search type. Address facts change less often than
// listing inventory, so address lookups live longer.
const (
	DefaultGeneralTTL = 15 * time.Minute
	DefaultAddressTTL = 1 * time.Hour
)

// Entry is a cached resolution result.
type Entry struct {
	Fingerprint  string
	Results      []properties.Property
	Verification properties.Verification
	Metadata     properties.Metadata
	CreatedAt    time.Time
	TTL          time.Duration
}

// Cache is the engine's response cache. Safe for concurrent readers and
// writers; created at process start and passed by reference into the
// resolver, never held as an ambient singleton.
type Cache struct {
	store      *gocache.Cache
	generalTTL time.Duration
	addressTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTLs overrides the per-search-type TTLs.
func WithTTLs(general, address time.Duration) Option {
	return func(c *Cache) {
		if general > 0 {
			c.generalTTL = general
		}
		if address > 0 {
			c.addressTTL = address
		}
	}
}

// New creates a response cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		generalTTL: DefaultGeneralTTL,
		addressTTL: DefaultAddressTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Cleanup interval only bounds memory; expiry itself is checked on read.
	c.store = gocache.New(c.generalTTL, 10*time.Minute)
	return c
}

// Get returns the cached entry for a fingerprint, or miss.
func (c *Cache) Get(fingerprint string) (*Entry, bool) {
	v, found := c.store.Get(fingerprint)
	if !found {
		return nil, false
	}
	entry, ok := v.(*Entry)
	if !ok {
		return nil, false
	}
	return entry, true
}

// Put stores a resolution result under its fingerprint with the TTL for the
// given search type.
func (c *Cache) Put(fingerprint string, results []properties.Property, verification properties.Verification, metadata properties.Metadata, searchType properties.SearchType) *Entry {
	ttl := c.TTLFor(searchType)
	entry := &Entry{
		Fingerprint:  fingerprint,
		Results:      results,
		Verification: verification,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
		TTL:          ttl,
	}
	c.store.Set(fingerprint, entry, ttl)
	return entry
}

// TTLFor returns the TTL used for a search type.
func (c *Cache) TTLFor(searchType properties.SearchType) time.Duration {
	if searchType == properties.SearchTypeAddress {
		return c.addressTTL
	}
	return c.generalTTL
}

// Delete evicts a fingerprint explicitly.
func (c *Cache) Delete(fingerprint string) {
	c.store.Delete(fingerprint)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Stats reports cache occupancy.
type Stats struct {
	ItemCount int `json:"item_count"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{ItemCount: c.store.ItemCount()}
}
