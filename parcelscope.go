// Package parcelscope resolves real-estate queries against external data
// providers and merges the responses into one canonical property schema.
//
// A Client owns the full resolution stack: provider registry, credential
// manager, provider clients, response cache, and the resolution engine.
// Queries are classified as exact address lookups or general listings
// searches, dispatched through the matching provider call chain, and
// returned with a verification envelope describing how well the result
// matches what was asked.
package parcelscope

import (
	"context"
	"fmt"

	"github.com/parcelscope/parcelscope/internal/cache"
	"github.com/parcelscope/parcelscope/internal/credentials"
	"github.com/parcelscope/parcelscope/internal/providers"
	"github.com/parcelscope/parcelscope/internal/providers/lightbox"
	"github.com/parcelscope/parcelscope/internal/providers/repliers"
	"github.com/parcelscope/parcelscope/internal/resolver"
	"github.com/parcelscope/parcelscope/internal/transport"
	"github.com/parcelscope/parcelscope/internal/verify"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// Client is the resolution engine's public entry point.
type Client struct {
	config      *config
	providers   *providers.Config
	credentials *credentials.Manager
	cache       *cache.Cache
	resolver    *resolver.Resolver
}

// New creates a Client with the given options. Provider credentials are
// resolved from the environment at construction so a misconfigured process
// fails at startup, not on the first query.
func New(opts ...Option) (*Client, error) {
	c := &Client{config: defaultConfig()}
	if err := c.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	providerCfg, err := providers.Load(c.config.providerConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading provider registry: %w", err)
	}
	c.providers = providerCfg

	lightboxCfg, err := providerCfg.Get(properties.ProviderLightbox)
	if err != nil {
		return nil, err
	}
	repliersCfg, err := providerCfg.Get(properties.ProviderRepliers)
	if err != nil {
		return nil, err
	}

	clientID, clientSecret, err := lightboxCfg.ClientCredentials()
	if err != nil {
		return nil, err
	}
	c.credentials = credentials.NewManager()
	c.credentials.Register(string(properties.ProviderLightbox), credentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     lightboxCfg.Auth.TokenURL,
		Scopes:       lightboxCfg.Auth.Scopes,
	})

	propertyData := lightbox.New(lightboxCfg,
		c.credentials.Source(string(properties.ProviderLightbox)),
		c.transportOptions(lightboxCfg)...)

	listingSearch, err := repliers.New(repliersCfg, c.transportOptions(repliersCfg)...)
	if err != nil {
		return nil, err
	}

	c.cache = cache.New(cache.WithTTLs(c.config.generalTTL, c.config.addressTTL))

	c.resolver = resolver.New(propertyData, listingSearch, c.cache, verify.New(),
		resolver.WithTopN(c.config.topN),
		resolver.WithEnrichLimit(c.config.enrichLimit),
		resolver.WithLogger(c.config.logger),
	)

	return c, nil
}

// transportOptions builds shared HTTP transport options from a provider's
// registry entry plus any client-wide overrides.
func (c *Client) transportOptions(p *providers.Provider) []transport.Option {
	var opts []transport.Option
	if c.config.httpTimeout > 0 {
		opts = append(opts, transport.WithTimeout(c.config.httpTimeout))
	} else if p.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(p.Timeout))
	}
	if p.RateLimit != nil {
		opts = append(opts, transport.WithRateLimit(p.RateLimit.RequestsPerSecond, p.RateLimit.Burst))
	}
	return opts
}

// Resolve classifies and resolves a property query. Results are cached by
// query fingerprint; identical queries within the TTL window are served
// without provider calls.
func (c *Client) Resolve(ctx context.Context, query properties.Query) (*properties.Result, error) {
	return c.resolver.Resolve(ctx, query)
}

// Cache returns the client's response cache, for serving and operational
// endpoints.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// FlushCache drops all cached resolutions.
func (c *Client) FlushCache() {
	c.cache.Clear()
}
