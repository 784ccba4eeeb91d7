package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/PabloPavan/cobit_api/internal/cache"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CacheStatser interface {
	Ping(ctx context.Context) error
	Stats() cache.Stats
}

type HealthHandler struct {
	DB    Pinger
	Cache CacheStatser
}

type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Cache  string `json:"cache"`
	Time   string `json:"time"`
}

// Get Health
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if h.DB == nil || h.DB.Ping(ctx) != nil {
		dbStatus = "down"
		status = "degraded"
	}

	// the store stays authoritative without a cache, so this never degrades status
	cacheStatus := "disabled"
	if h.Cache != nil {
		cacheStatus = "ok"
		if err := h.Cache.Ping(ctx); err != nil {
			cacheStatus = "down"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: status,
		DB:     dbStatus,
		Cache:  cacheStatus,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// CacheStats Health
// @Summary Cache hit ratio and latency quantiles
// @Tags health
// @Produce json
// @Success 200 {object} cache.Stats
// @Failure 404 {object} errorResponse
// @Router /health/cache [get]
func (h *HealthHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}
	writeJSON(w, http.StatusOK, h.Cache.Stats())
}
