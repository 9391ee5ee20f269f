package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/assistant"
	apperrors "pennywise/internal/errors"
)

// QuestionAnswerer answers natural-language budget questions.
type QuestionAnswerer interface {
	Answer(ctx context.Context, q assistant.Query) (*assistant.Answer, error)
}

// AssistantHandler handles assistant queries.
type AssistantHandler struct {
	orchestrator QuestionAnswerer
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(orchestrator QuestionAnswerer) *AssistantHandler {
	return &AssistantHandler{orchestrator: orchestrator}
}

// AssistantQueryRequest represents the request payload for an assistant query.
type AssistantQueryRequest struct {
	Question string `json:"question" binding:"required,max=1000"`
	BudgetID *uint  `json:"budgetId" binding:"omitempty,gt=0"`
	Timezone string `json:"timezone" binding:"omitempty,max=64"`
}

// Query answers a question about the user's budget.
// @Summary     Ask the budget assistant
// @Description Answer a natural-language question using a fixed set of budget tools. Questions without a time range, or with several budgets and none selected, get a clarification instead.
// @Tags        assistant
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AssistantQueryRequest true "Question"
// @Success     200 {object} assistant.Answer "Answer or clarification"
// @Failure     400 {object} apperrors.Response "Invalid input"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "Budget not found"
// @Failure     502 {object} apperrors.Response "Assistant unavailable"
// @Router      /assistant/query [post]
func (h *AssistantHandler) Query(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssistantQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	answer, err := h.orchestrator.Answer(c.Request.Context(), assistant.Query{
		UserID:   userID,
		Question: req.Question,
		BudgetID: req.BudgetID,
		Timezone: req.Timezone,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
