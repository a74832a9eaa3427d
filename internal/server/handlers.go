package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// ModerationHandler handles moderation HTTP requests
type ModerationHandler struct {
	service *core.ModerationService
	logger  *zap.Logger
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(service *core.ModerationService, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger,
	}
}

type moderateRequest struct {
	Text string `json:"text"`
}

// Moderate handles POST /v1/moderate. Empty text is a valid request and gets
// the acceptable short-circuit result.
func (h *ModerationHandler) Moderate(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result := h.service.Analyze(c.Request.Context(), req.Text)
	respondSuccess(c, http.StatusOK, result)
}

// CacheStats handles GET /v1/cache/stats
func (h *ModerationHandler) CacheStats(c *gin.Context) {
	stats, ok := h.service.CacheStats()
	if !ok {
		respondError(c, http.StatusNotImplemented, "STATS_UNSUPPORTED",
			"the configured cache does not report statistics")
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// ClearCache handles DELETE /v1/cache
func (h *ModerationHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear result cache", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cleared": true})
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health
func (h *ModerationHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string)
	healthy := true

	// Check classifier backend
	if err := h.service.ClassifierHealth(ctx); err != nil {
		components["classifier"] = "error: " + err.Error()
		healthy = false
	} else {
		components["classifier"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthStatus{
		Status:     status,
		Components: components,
	})
}
