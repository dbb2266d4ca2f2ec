package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/predict"
)

// Pinger checks a dependency's liveness. Optional; nil skips the check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	version     string
	chatEnabled bool
	cache       Pinger
}

// NewHealthHandler wires the probes. cache may be nil when the structure
// cache is disabled.
func NewHealthHandler(version string, chatEnabled bool, cache Pinger) *HealthHandler {
	return &HealthHandler{version: version, chatEnabled: chatEnabled, cache: cache}
}

// Healthz handles GET /healthz: process is up.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          h.version,
		"chatbot_enabled":  h.chatEnabled,
		"properties_count": len(predict.Catalog),
	})
}

// Readyz handles GET /readyz: dependencies are reachable. The structure
// sources are deliberately not probed; they are unreliable by design and the
// service degrades without them.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"cache":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
