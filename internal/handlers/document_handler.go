package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/extraction"
	"pennywise/internal/services"
)

// DocumentExtractor turns a raw document into candidate transactions.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc extraction.Document, opts extraction.Options) ([]extraction.Candidate, error)
}

// DocumentHandler handles document-processing requests.
type DocumentHandler struct {
	budgetService   services.BudgetServicer
	categoryService services.CategoryServicer
	extractor       DocumentExtractor
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(budgetService services.BudgetServicer, categoryService services.CategoryServicer, extractor DocumentExtractor) *DocumentHandler {
	return &DocumentHandler{budgetService: budgetService, categoryService: categoryService, extractor: extractor}
}

// ProcessDocumentRequest represents the request payload for processing a document.
type ProcessDocumentRequest struct {
	Content  string `json:"content" binding:"required,max=3000000"`
	Format   string `json:"format" binding:"required,document_format"`
	BudgetID uint   `json:"budgetId" binding:"required,gt=0"`
}

// ProcessDocumentResponse holds the extracted candidates.
type ProcessDocumentResponse struct {
	Transactions []extraction.Candidate `json:"transactions"`
}

// ProcessDocument extracts candidate transactions from an uploaded statement.
// @Summary     Process a document
// @Description Extract candidate transactions from CSV or PDF statement content. Nothing is persisted.
// @Tags        documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProcessDocumentRequest true "Document"
// @Success     200 {object} ProcessDocumentResponse "Candidate transactions"
// @Failure     400 {object} apperrors.Response "Invalid input"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "Budget not found"
// @Failure     422 {object} apperrors.Response "Document could not be parsed"
// @Failure     503 {object} apperrors.Response "Extraction capacity exhausted"
// @Failure     504 {object} apperrors.Response "Extraction timed out"
// @Router      /documents/process [post]
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProcessDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.budgetService.GetBudgetByID(ctx, userID, req.BudgetID); err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetBudgetCategories(ctx, req.BudgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}

	candidates, err := h.extractor.Extract(ctx,
		extraction.Document{Content: req.Content, Format: extraction.Format(req.Format), BudgetID: req.BudgetID},
		extraction.Options{Categories: names},
	)
	if err != nil {
		respondWithError(c, extractionError(err))
		return
	}

	c.JSON(http.StatusOK, ProcessDocumentResponse{Transactions: candidates})
}

func extractionError(err error) error {
	var parseErr *extraction.Error
	var inputErr *extraction.InputError
	switch {
	case errors.As(err, &parseErr):
		return &apperrors.AppError{
			Code:       apperrors.ErrExtractionFailed.Code,
			Message:    "Document could not be read as " + string(parseErr.Format) + ": " + parseErr.Reason,
			StatusCode: apperrors.ErrExtractionFailed.StatusCode,
			Internal:   parseErr.Err,
		}
	case errors.As(err, &inputErr):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, inputErr.Reason)
	case errors.Is(err, extraction.ErrBusy):
		return apperrors.Wrap(apperrors.ErrExtractionCapacity, err)
	case errors.Is(err, extraction.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrExtractionTimeout, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}
