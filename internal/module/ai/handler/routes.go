package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/port/outbound"
)

// Handlers holds all video API handlers.
type Handlers struct {
	Media  *MediaHandler
	Task   *TaskHandler
	Prompt *PromptHandler
	Admin  *AdminHandler
}

// NewHandlers creates all video API handlers.
func NewHandlers(
	tasks TaskService,
	prompts PromptSource,
	artifacts outbound.StoragePort,
	health HealthReporter,
	presignExpiry time.Duration,
) *Handlers {
	return &Handlers{
		Media:  NewMediaHandler(tasks, prompts, artifacts, presignExpiry),
		Task:   NewTaskHandler(tasks),
		Prompt: NewPromptHandler(prompts),
		Admin:  NewAdminHandler(health),
	}
}

// RegisterRoutes registers all video API routes.
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup, adminRouter *gin.RouterGroup) {
	h.Media.RegisterRoutes(r)
	h.Task.RegisterRoutes(r)
	h.Prompt.RegisterRoutes(r)

	if adminRouter != nil {
		h.Admin.RegisterRoutes(adminRouter)
	}
}
