package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/module/ai/task"
	apperrors "github.com/promptreel/server/internal/shared/errors"
)

// TaskHandler lists video tasks.
type TaskHandler struct {
	tasks TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// RegisterRoutes registers task routes.
func (h *TaskHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/videos", h.List)
}

// List handles task list requests.
//
//	@Summary		List video tasks
//	@Tags			Videos
//	@Produce		json
//	@Param			status		query		string	false	"Filter by status"	Enums(pending, running, completed, failed)
//	@Param			order		query		string	false	"Sort by creation time"	Enums(asc, desc)
//	@Param			page		query		int		false	"Page number"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	ListResponse
//	@Failure		400			{object}	apperrors.ErrorResponse	"Invalid filter"
//	@Router			/v1/videos [get]
func (h *TaskHandler) List(c *gin.Context) {
	var page Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		handleError(c, apperrors.BadRequest(err.Error()))
		return
	}

	// Parse query parameters
	filter := &task.Filter{
		Limit:    page.GetLimit() + 1,
		Offset:   page.GetOffset(),
		OrderDir: c.Query("order"),
	}
	if status := c.Query("status"); status != "" {
		s := task.Status(status)
		switch s {
		case task.StatusPending, task.StatusRunning, task.StatusCompleted, task.StatusFailed:
			filter.Status = &s
		default:
			handleError(c, apperrors.BadRequest("unknown status "+status))
			return
		}
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	hasMore := len(tasks) > page.GetLimit()
	if hasMore {
		tasks = tasks[:page.GetLimit()]
	}

	data := make([]*VideoResponse, len(tasks))
	for i, t := range tasks {
		data[i] = newVideoResponse(t)
	}

	c.JSON(http.StatusOK, &ListResponse{
		Object:   "list",
		Data:     data,
		Page:     page.Page,
		PageSize: page.GetLimit(),
		HasMore:  hasMore,
	})
}
