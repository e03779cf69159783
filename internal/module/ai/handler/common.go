package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/module/ai/task"
	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/internal/module/catalog"
	"github.com/promptreel/server/internal/port/outbound"
	apperrors "github.com/promptreel/server/internal/shared/errors"
)

// handleError maps err to an HTTP error response.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	appErr := toAppError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, veo.ErrInvalidRequest):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, veo.ErrProviderUnavailable):
		return apperrors.ServiceUnavailable("video provider is unavailable, retry later", err)
	case errors.Is(err, task.ErrTaskNotFound):
		return apperrors.NotFound("video task")
	case errors.Is(err, catalog.ErrPromptNotFound):
		return apperrors.NotFound("prompt")
	case errors.Is(err, outbound.ErrObjectNotFound):
		return apperrors.NotFound("video artifact")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError("TIMEOUT", "request timed out", http.StatusGatewayTimeout, err)
	default:
		return apperrors.From(err)
	}
}

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// GetOffset returns the offset for pagination.
func (p *Pagination) GetOffset() int {
	if p.Page <= 0 {
		p.Page = 1
	}
	return (p.Page - 1) * p.GetLimit()
}

// GetLimit returns the limit for pagination.
func (p *Pagination) GetLimit() int {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p.PageSize
}

// ListResponse represents a page of results.
type ListResponse struct {
	Object   string `json:"object"`
	Data     any    `json:"data"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasMore  bool   `json:"has_more"`
}
