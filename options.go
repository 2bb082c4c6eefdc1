package parcelscope

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelscope/parcelscope/internal/cache"
	"github.com/parcelscope/parcelscope/internal/resolver"
	"github.com/parcelscope/parcelscope/pkg/logging"
)

// config holds the assembled client configuration.
type config struct {
	providerConfigFile string
	generalTTL         time.Duration
	addressTTL         time.Duration
	httpTimeout        time.Duration
	topN               int
	enrichLimit        int
	logger             *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		generalTTL:  cache.DefaultGeneralTTL,
		addressTTL:  cache.DefaultAddressTTL,
		topN:        resolver.DefaultTopN,
		enrichLimit: resolver.DefaultEnrichLimit,
		logger:      logging.Default(),
	}
}

// Option is a function that configures a Client.
type Option func(*config) error

// options applies all options to the client configuration.
func (c *Client) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c.config); err != nil {
			return err
		}
	}
	return nil
}

// WithProviderConfigFile points the client at a YAML provider registry that
// overrides the built-in defaults.
func WithProviderConfigFile(path string) Option {
	return func(c *config) error {
		c.providerConfigFile = path
		return nil
	}
}

// WithCacheTTLs overrides how long general-search and address-lookup results
// stay cached.
func WithCacheTTLs(general, address time.Duration) Option {
	return func(c *config) error {
		if general > 0 {
			c.generalTTL = general
		}
		if address > 0 {
			c.addressTTL = address
		}
		return nil
	}
}

// WithHTTPTimeout overrides the per-request timeout for all providers.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		c.httpTimeout = timeout
		return nil
	}
}

// WithTopN sets how many general-search results receive property-data
// enrichment.
func WithTopN(n int) Option {
	return func(c *config) error {
		c.topN = n
		return nil
	}
}

// WithEnrichLimit bounds concurrent enrichment calls per query.
func WithEnrichLimit(n int) Option {
	return func(c *config) error {
		c.enrichLimit = n
		return nil
	}
}

// WithLogger sets the structured logger used across the resolution stack.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
