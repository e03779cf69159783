package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/module/ai/llm"
	apperrors "github.com/promptreel/server/internal/shared/errors"
)

// Procedure names served on the RPC surface.
const (
	ProcPromptsList           = "prompts.list"
	ProcPromptsGetByID        = "prompts.getById"
	ProcPromptsListByCategory = "prompts.listByCategory"
	ProcGenerateVariation     = "generator.generateVariation"
)

// Envelope wraps a successful procedure result.
type Envelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type procedure struct {
	method string
	call   func(c *gin.Context) (any, error)
}

// Handler serves the catalog over tRPC-style HTTP procedures.
type Handler struct {
	service    *Service
	procedures map[string]procedure
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	h := &Handler{service: service}
	h.procedures = map[string]procedure{
		ProcPromptsList:           {method: http.MethodGet, call: h.list},
		ProcPromptsGetByID:        {method: http.MethodGet, call: h.getByID},
		ProcPromptsListByCategory: {method: http.MethodGet, call: h.listByCategory},
		ProcGenerateVariation:     {method: http.MethodPost, call: h.generateVariation},
	}
	return h
}

// RegisterRoutes registers the procedure routes under r, usually /api/trpc.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:procedure", h.Dispatch)
	r.POST("/:procedure", h.Dispatch)
}

// Dispatch runs the named procedure.
//
//	@Summary		Call a catalog procedure
//	@Description	prompts.list, prompts.getById?id=, prompts.listByCategory?category= and generator.generateVariation (POST)
//	@Tags			Catalog
//	@Accept			json
//	@Produce		json
//	@Param			procedure	path		string				true	"Procedure name"
//	@Param			request		body		VariationRequest	false	"Variation request (generator.generateVariation)"
//	@Success		200			{object}	Envelope
//	@Failure		400			{object}	apperrors.ErrorDetail	"Invalid input"
//	@Failure		404			{object}	apperrors.ErrorDetail	"Unknown procedure or prompt"
//	@Failure		405			{object}	apperrors.ErrorDetail	"Wrong method"
//	@Failure		502			{object}	apperrors.ErrorDetail	"Model failure"
//	@Router			/trpc/{procedure} [post]
func (h *Handler) Dispatch(c *gin.Context) {
	name := c.Param("procedure")
	proc, ok := h.procedures[name]
	if !ok {
		abort(c, apperrors.NewAppError("NOT_FOUND", "no procedure "+name, http.StatusNotFound, nil))
		return
	}
	if c.Request.Method != proc.method {
		abort(c, apperrors.NewAppError("METHOD_NOT_SUPPORTED", name+" expects "+proc.method, http.StatusMethodNotAllowed, nil))
		return
	}

	data, err := proc.call(c)
	if err != nil {
		abort(c, toAppError(err))
		return
	}

	var env Envelope
	env.Result.Data = data
	c.JSON(http.StatusOK, env)
}

func (h *Handler) list(c *gin.Context) (any, error) {
	return h.service.List(c.Request.Context())
}

type getByIDInput struct {
	ID uint `form:"id" json:"id" binding:"required"`
}

func (h *Handler) getByID(c *gin.Context) (any, error) {
	var in getByIDInput
	if err := bindQuery(c, &in); err != nil {
		return nil, err
	}
	return h.service.Get(c.Request.Context(), in.ID)
}

type categoryInput struct {
	Category string `form:"category" json:"category" binding:"required"`
}

func (h *Handler) listByCategory(c *gin.Context) (any, error) {
	var in categoryInput
	if err := bindQuery(c, &in); err != nil {
		return nil, err
	}
	return h.service.ListByCategory(c.Request.Context(), in.Category)
}

func (h *Handler) generateVariation(c *gin.Context) (any, error) {
	var req VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	return h.service.GenerateVariations(c.Request.Context(), &req)
}

// bindQuery reads procedure input from plain query parameters or from the
// JSON-encoded input parameter used by tRPC clients.
func bindQuery(c *gin.Context, dst any) error {
	if raw := c.Query("input"); raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return apperrors.BadRequest("input is not valid JSON")
		}
		return nil
	}
	if err := c.ShouldBindQuery(dst); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	return nil
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrPromptNotFound):
		return apperrors.NotFound("prompt")
	case errors.Is(err, ErrInvalidVariationRequest):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, ErrMalformedVariation), errors.Is(err, llm.ErrEmptyResponse):
		return apperrors.BadGateway("LLM_ERROR", err.Error(), err)
	case errors.Is(err, llm.ErrNotConfigured):
		return apperrors.ServiceUnavailable("variation generation is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError("TIMEOUT", "procedure timed out", http.StatusGatewayTimeout, err)
	default:
		return apperrors.From(err)
	}
}

func abort(c *gin.Context, err *apperrors.AppError) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.StatusCode, err.Detail())
}
