package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/imports"
	"pennywise/internal/services"
)

// BatchCommitter commits a validated batch of transactions.
type BatchCommitter interface {
	Commit(ctx context.Context, req imports.Request) (*imports.Result, error)
}

// ImportHandler handles bulk import requests.
type ImportHandler struct {
	budgetService services.BudgetServicer
	importer      BatchCommitter
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(budgetService services.BudgetServicer, importer BatchCommitter) *ImportHandler {
	return &ImportHandler{budgetService: budgetService, importer: importer}
}

// BulkImportRequest represents the request payload for a bulk import. Row
// rules are checked by the importer so every offending row is reported.
type BulkImportRequest struct {
	BudgetID     uint          `json:"budgetId" binding:"required,gt=0"`
	Transactions []imports.Row `json:"transactions"`
}

// BulkImport commits up to 500 transactions atomically.
// @Summary     Bulk import transactions
// @Description Validate and commit a batch of 1 to 500 transactions. Either every row is stored or none is. An identical retry inside the dedup window returns the original result with duplicate=true.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkImportRequest true "Batch"
// @Success     201 {object} imports.Result "Batch committed"
// @Success     200 {object} imports.Result "Duplicate submission replayed"
// @Failure     400 {object} apperrors.Response "Validation failed"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "Budget not found"
// @Failure     409 {object} apperrors.Response "Another import for this budget is in progress"
// @Failure     500 {object} apperrors.Response "Import failed, nothing was stored"
// @Router      /transactions/bulk [post]
func (h *ImportHandler) BulkImport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.budgetService.GetBudgetByID(ctx, userID, req.BudgetID); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.importer.Commit(ctx, imports.Request{
		UserID:    userID,
		BudgetID:  req.BudgetID,
		Rows:      req.Transactions,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}
