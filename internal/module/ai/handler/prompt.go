package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/module/ai/prompt"
	apperrors "github.com/promptreel/server/internal/shared/errors"
)

// PromptHandler renders structured prompts.
type PromptHandler struct {
	prompts PromptSource
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(prompts PromptSource) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// RegisterRoutes registers prompt routes.
func (h *PromptHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/prompts/translate", h.Translate)
}

// TranslateRequest carries a structured prompt or the ID of a stored one.
type TranslateRequest struct {
	Prompt   json.RawMessage `json:"prompt,omitempty" swaggertype:"object"`
	PromptID uint            `json:"prompt_id,omitempty"`
}

// TranslateResponse is the text sent to the video provider.
type TranslateResponse struct {
	Text string `json:"text"`
}

// Translate handles prompt translation requests.
//
//	@Summary		Translate a structured prompt
//	@Description	Returns the transcript the video provider would receive for the prompt
//	@Tags			Prompts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TranslateRequest	true	"Prompt"
//	@Success		200		{object}	TranslateResponse
//	@Failure		400		{object}	apperrors.ErrorResponse	"Invalid request"
//	@Failure		404		{object}	apperrors.ErrorResponse	"Prompt not found"
//	@Failure		422		{object}	apperrors.ErrorResponse	"Nothing to translate"
//	@Router			/v1/prompts/translate [post]
func (h *PromptHandler) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.BadRequest(err.Error()))
		return
	}

	raw := req.Prompt
	if len(raw) == 0 && req.PromptID != 0 && h.prompts != nil {
		stored, err := h.prompts.Get(c.Request.Context(), req.PromptID)
		if err != nil {
			handleError(c, err)
			return
		}
		raw = []byte(stored.PromptJSON)
	}

	text := prompt.Translate(prompt.Parse(raw))
	if text == "" {
		handleError(c, apperrors.ValidationError("prompt has no translatable sections"))
		return
	}

	c.JSON(http.StatusOK, &TranslateResponse{Text: text})
}
