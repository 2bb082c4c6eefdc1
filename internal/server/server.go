// Package server provides the HTTP server for the parcelscope API.
package server

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelscope/parcelscope/internal/cache"
	"github.com/parcelscope/parcelscope/internal/server/handlers"
	"github.com/parcelscope/parcelscope/pkg/logging"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	resolver  handlers.PropertyResolver
	cache     *cache.Cache
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a new server instance with the given configuration. The
// resolver and cache are owned by the caller; the server only routes
// requests into them.
func New(resolver handlers.PropertyResolver, responseCache *cache.Cache, cfg Config, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}

	return &Server{
		resolver:  resolver,
		cache:     responseCache,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the host:port the server should listen on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
