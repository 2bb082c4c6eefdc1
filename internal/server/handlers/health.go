package handlers

import (
	"net/http"
	"time"

	"github.com/parcelscope/parcelscope/internal/server/response"
)

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Health check endpoint (liveness probe)
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "parcelscope-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Readiness check including cache status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.resolver == nil {
		response.ServiceUnavailable(w, "Resolver not available")
		return
	}

	response.OK(w, map[string]any{
		"status": "ready",
		"cache": map[string]any{
			"items": h.cache.GetStats().ItemCount,
		},
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}
