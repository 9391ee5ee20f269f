package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"pennywise/internal/assistant"
	apperrors "pennywise/internal/errors"
	"pennywise/internal/extraction"
	"pennywise/internal/imports"
	"pennywise/internal/logger"
	"pennywise/internal/models"
	"pennywise/internal/services"
	"pennywise/internal/validator"
)

// --- mocks ---

type mockBudgetService struct {
	getBudgetByIDFn func(userID, budgetID uint) (*models.Budget, error)
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, userID, budgetID uint) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	b := &models.Budget{UserID: userID, Currency: "EUR"}
	b.ID = budgetID
	return b, nil
}

func (m *mockBudgetService) GetUserBudgets(_ context.Context, _ uint) ([]models.Budget, error) {
	return nil, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

// ownedBy returns a budget service where only owner can see budgets.
func ownedBy(owner uint) *mockBudgetService {
	return &mockBudgetService{getBudgetByIDFn: func(userID, budgetID uint) (*models.Budget, error) {
		if userID != owner {
			return nil, apperrors.ErrBudgetNotFound
		}
		b := &models.Budget{UserID: owner}
		b.ID = budgetID
		return b, nil
	}}
}

type mockCategoryService struct {
	categories []models.Category
	err        error
}

func (m *mockCategoryService) GetBudgetCategories(_ context.Context, _ uint) ([]models.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryService) GetCategoryIDs(_ context.Context, _ uint) (map[uint]struct{}, error) {
	ids := map[uint]struct{}{}
	for _, c := range m.categories {
		ids[c.ID] = struct{}{}
	}
	return ids, m.err
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockExtractor struct {
	extractFn func(doc extraction.Document, opts extraction.Options) ([]extraction.Candidate, error)
}

func (m *mockExtractor) Extract(ctx context.Context, doc extraction.Document, opts extraction.Options) ([]extraction.Candidate, error) {
	if m.extractFn != nil {
		return m.extractFn(doc, opts)
	}
	return extraction.Extract(ctx, doc, opts)
}

type mockCommitter struct {
	commitFn func(req imports.Request) (*imports.Result, error)
	calls    int
}

func (m *mockCommitter) Commit(_ context.Context, req imports.Request) (*imports.Result, error) {
	m.calls++
	if m.commitFn != nil {
		return m.commitFn(req)
	}
	return &imports.Result{Created: len(req.Rows), BatchID: "batch-1"}, nil
}

type mockAnswerer struct {
	answerFn func(q assistant.Query) (*assistant.Answer, error)
}

func (m *mockAnswerer) Answer(_ context.Context, q assistant.Query) (*assistant.Answer, error) {
	return m.answerFn(q)
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func injectUserID(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
