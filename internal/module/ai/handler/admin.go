package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/module/ai/provider"
)

// HealthReporter exposes the provider health monitor.
type HealthReporter interface {
	Check(ctx context.Context) error
	Snapshot() provider.Snapshot
}

// AdminHandler handles provider administration requests.
type AdminHandler struct {
	health HealthReporter
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(health HealthReporter) *AdminHandler {
	return &AdminHandler{health: health}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/provider/health", h.GetProviderHealth)
	r.POST("/provider/health/check", h.CheckProvider)
}

// GetProviderHealth returns the provider health snapshot.
//
//	@Summary		Get provider health
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	provider.Snapshot
//	@Router			/v1/admin/provider/health [get]
func (h *AdminHandler) GetProviderHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.health.Snapshot())
}

// CheckProvider probes the provider now and returns the resulting snapshot.
//
//	@Summary		Probe provider health
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	provider.Snapshot
//	@Failure		503	{object}	provider.Snapshot
//	@Router			/v1/admin/provider/health/check [post]
func (h *AdminHandler) CheckProvider(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	status := http.StatusOK
	if err := h.health.Check(ctx); err != nil {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, h.health.Snapshot())
}
