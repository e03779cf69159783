package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptreel/server/internal/module/ai/task"
	"github.com/promptreel/server/internal/module/catalog"
	"github.com/promptreel/server/internal/port/outbound"
	apperrors "github.com/promptreel/server/internal/shared/errors"
)

// TaskService runs video generation tasks.
type TaskService interface {
	Submit(ctx context.Context, in task.Input) (*task.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*task.Task, error)
	List(ctx context.Context, filter *task.Filter) ([]*task.Task, error)
}

// PromptSource resolves stored prompts by ID.
type PromptSource interface {
	Get(ctx context.Context, id uint) (*catalog.Prompt, error)
}

// MediaHandler handles video generation API requests.
type MediaHandler struct {
	tasks         TaskService
	prompts       PromptSource
	artifacts     outbound.StoragePort
	presignExpiry time.Duration
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(tasks TaskService, prompts PromptSource, artifacts outbound.StoragePort, presignExpiry time.Duration) *MediaHandler {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &MediaHandler{
		tasks:         tasks,
		prompts:       prompts,
		artifacts:     artifacts,
		presignExpiry: presignExpiry,
	}
}

// RegisterRoutes registers media routes.
func (h *MediaHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/videos/generations", h.GenerateVideo)
	r.GET("/videos/:task_id", h.GetVideoStatus)
	r.GET("/videos/:task_id/content", h.GetVideoContent)
}

// VideoResponse is a video task as returned by the API.
type VideoResponse struct {
	*task.Task
	ContentURL string `json:"content_url,omitempty"`
}

func newVideoResponse(t *task.Task) *VideoResponse {
	resp := &VideoResponse{Task: t}
	if t.Status == task.StatusCompleted {
		resp.ContentURL = fmt.Sprintf("/api/v1/videos/%s/content", t.ID)
	}
	return resp
}

// GenerateVideo handles video generation requests.
//
//	@Summary		Generate a video
//	@Description	Submit a structured prompt, a stored prompt id or plain text. The task runs in the background.
//	@Tags			Videos
//	@Accept			json
//	@Produce		json
//	@Param			request	body		task.Input	true	"Video generation request"
//	@Success		202		{object}	VideoResponse
//	@Failure		400		{object}	apperrors.ErrorResponse	"Invalid request"
//	@Failure		404		{object}	apperrors.ErrorResponse	"Prompt not found"
//	@Failure		422		{object}	apperrors.ErrorResponse	"Unsupported options"
//	@Failure		503		{object}	apperrors.ErrorResponse	"Provider unavailable"
//	@Router			/v1/videos/generations [post]
func (h *MediaHandler) GenerateVideo(c *gin.Context) {
	var in task.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		handleError(c, apperrors.BadRequest(err.Error()))
		return
	}

	// Resolve a stored prompt
	if len(in.Prompt) == 0 && in.PromptID != 0 {
		if h.prompts == nil {
			handleError(c, apperrors.BadRequest("prompt_id is not supported"))
			return
		}
		stored, err := h.prompts.Get(c.Request.Context(), in.PromptID)
		if err != nil {
			handleError(c, err)
			return
		}
		in.Prompt = []byte(stored.PromptJSON)
	}

	t, err := h.tasks.Submit(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/v1/videos/%s", t.ID))
	c.JSON(http.StatusAccepted, newVideoResponse(t))
}

// GetVideoStatus handles video status requests.
//
//	@Summary		Get a video task
//	@Tags			Videos
//	@Produce		json
//	@Param			task_id	path		string	true	"Task ID"
//	@Success		200		{object}	VideoResponse
//	@Failure		400		{object}	apperrors.ErrorResponse	"Invalid task id"
//	@Failure		404		{object}	apperrors.ErrorResponse	"Task not found"
//	@Router			/v1/videos/{task_id} [get]
func (h *MediaHandler) GetVideoStatus(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	t, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newVideoResponse(t))
}

// GetVideoContent serves the generated video, redirecting to the object store
// when it can issue a direct URL.
//
//	@Summary		Download a generated video
//	@Tags			Videos
//	@Produce		video/mp4
//	@Param			task_id	path	string	true	"Task ID"
//	@Success		200		"Video bytes"
//	@Success		302		"Redirect to a presigned URL"
//	@Failure		404		{object}	apperrors.ErrorResponse	"Task or video not found"
//	@Failure		409		{object}	apperrors.ErrorResponse	"Video not ready"
//	@Router			/v1/videos/{task_id}/content [get]
func (h *MediaHandler) GetVideoContent(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	t, err := h.tasks.Get(ctx, id)
	if err != nil {
		handleError(c, err)
		return
	}
	if t.Status != task.StatusCompleted || t.ArtifactKey == "" {
		handleError(c, apperrors.Conflict(fmt.Sprintf("video is %s", t.Status)))
		return
	}

	url, err := h.artifacts.PresignedURL(ctx, t.ArtifactKey, h.presignExpiry)
	if err == nil {
		c.Redirect(http.StatusFound, url)
		return
	}
	if !errors.Is(err, outbound.ErrPresignUnsupported) {
		handleError(c, err)
		return
	}

	obj, err := h.artifacts.Open(ctx, t.ArtifactKey)
	if err != nil {
		handleError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = task.VideoContentType
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.mp4"`, t.ID),
	})
}

func parseTaskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		handleError(c, apperrors.BadRequest("invalid task id"))
		return uuid.Nil, false
	}
	return id, true
}
