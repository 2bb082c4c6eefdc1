package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/parcelscope/parcelscope/internal/server/response"
)

// HandleStats handles GET /api/v1/stats.
// @Summary Server statistics
// @Description Get server runtime and cache statistics
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"cache": h.cache.GetStats(),
	})
}

// HandleCacheFlush handles POST /api/v1/cache/flush. Operators use it after
// a provider data correction to force fresh resolutions.
// @Summary Flush the response cache
// @Description Remove all cached resolutions
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/cache/flush [post].
func (h *Handlers) HandleCacheFlush(w http.ResponseWriter, _ *http.Request) {
	h.cache.Clear()
	h.logger.Info().Msg("Response cache flushed")
	response.OK(w, map[string]any{"status": "flushed"})
}
