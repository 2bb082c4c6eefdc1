// Package handlers provides HTTP request handlers for the parcelscope API.
package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelscope/parcelscope/internal/cache"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// PropertyResolver resolves property queries. The resolution engine
// implements it; tests substitute fakes.
type PropertyResolver interface {
	Resolve(ctx context.Context, query properties.Query) (*properties.Result, error)
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	resolver  PropertyResolver
	cache     *cache.Cache
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(resolver PropertyResolver, responseCache *cache.Cache, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		resolver:  resolver,
		cache:     responseCache,
		logger:    logger,
		startTime: time.Now(),
	}
}
