// Package app provides the application context and dependency management
// for the parcelscope CLI. It centralizes configuration, logging, and the
// resolution engine instance behind one dependency-injection point.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/parcelscope/parcelscope"
)

// App represents the parcelscope application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Engine instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client *parcelscope.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Client returns the resolution engine, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (*parcelscope.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	client, err := parcelscope.New(a.buildClientOptions()...)
	if err != nil {
		return nil, err
	}

	a.client = client
	return client, nil
}

// buildClientOptions constructs engine options from the app configuration.
func (a *App) buildClientOptions() []parcelscope.Option {
	opts := []parcelscope.Option{
		parcelscope.WithLogger(a.logger),
	}

	if a.config.ProviderConfig != "" {
		opts = append(opts, parcelscope.WithProviderConfigFile(a.config.ProviderConfig))
	}
	if a.config.CacheGeneralTTL > 0 || a.config.CacheAddressTTL > 0 {
		opts = append(opts, parcelscope.WithCacheTTLs(a.config.CacheGeneralTTL, a.config.CacheAddressTTL))
	}
	if a.config.HTTPTimeout > 0 {
		opts = append(opts, parcelscope.WithHTTPTimeout(a.config.HTTPTimeout))
	}
	if a.config.TopN > 0 {
		opts = append(opts, parcelscope.WithTopN(a.config.TopN))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom engine instance (useful for testing).
func WithClient(client *parcelscope.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
