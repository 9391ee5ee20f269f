package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pennywise/internal/assistant"
	"pennywise/internal/extraction"
	"pennywise/internal/handlers"
	"pennywise/internal/imports"
	"pennywise/internal/logger"
	"pennywise/internal/models"
	"pennywise/internal/services"
	"pennywise/internal/testutil"
	"pennywise/internal/validator"
)

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp wires real services over an isolated in-memory SQLite database.
// The assistant clock is pinned to 15 March 2024.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	runner, err := extraction.NewRunner(2, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create extraction runner: %v", err)
	}
	t.Cleanup(runner.Release)

	cache := assistant.NewMemoryCache(time.Minute)
	importer := imports.NewImporter(
		services.NewImportStore(categoryService, transactionService),
		imports.WithInvalidator(cache),
		imports.WithAuditor(auditService),
	)
	orchestrator := assistant.NewOrchestrator(
		services.NewLedger(budgetService, categoryService, transactionService),
		assistant.WithCache(cache),
		assistant.WithClock(func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }),
	)

	router := New(Deps{
		Documents: handlers.NewDocumentHandler(budgetService, categoryService, runner),
		Imports:   handlers.NewImportHandler(budgetService, importer),
		Assistant: handlers.NewAssistantHandler(orchestrator),
	})
	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(result map[string]interface{}) string {
	errObj, _ := result["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

const statement = "Fecha;Concepto;Importe\n" +
	"02/03/2024;MERCADONA VALENCIA;-45,20\n" +
	"05/03/2024;Nómina marzo;2.500,00\n" +
	"09/03/2024;Panadería;-10,00\n"

func TestStatementToAnswerFlow(t *testing.T) {
	app := setupApp(t)
	user := testutil.CreateTestUser(t, app.DB)
	budget := testutil.CreateTestBudget(t, app.DB, user.ID)
	food := testutil.CreateTestCategory(t, app.DB, budget.ID, "Comida", 40000)
	token := testutil.AccessToken(t, user.ID)

	ask := func(t *testing.T) map[string]interface{} {
		t.Helper()
		body := fmt.Sprintf(`{"question":"¿Cuánto gasté en comida este mes?","budgetId":%d}`, budget.ID)
		rec := app.request("POST", "/api/v1/assistant/query", body, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("query failed: %d %s", rec.Code, rec.Body.String())
		}
		return parseJSON(t, rec)
	}

	// Nothing imported yet.
	before := ask(t)
	if before["data"].(map[string]interface{})["total"].(float64) != 0 {
		t.Fatalf("expected empty total before import, got %v", before["data"])
	}

	// 1. Extract candidates from a Spanish bank CSV.
	docBody, _ := json.Marshal(map[string]any{"content": statement, "format": "csv", "budgetId": budget.ID})
	rec := app.request("POST", "/api/v1/documents/process", string(docBody), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("process failed: %d %s", rec.Code, rec.Body.String())
	}
	var processed handlers.ProcessDocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &processed); err != nil {
		t.Fatalf("decode candidates: %v", err)
	}
	if len(processed.Transactions) != 3 {
		t.Fatalf("expected 3 candidates, got %+v", processed.Transactions)
	}
	first := processed.Transactions[0]
	if first.Date != "2024-03-02" || first.Type != models.TransactionTypeExpense || first.Amount.String() != "45.2" {
		t.Errorf("unexpected first candidate %+v", first)
	}
	if processed.Transactions[1].Type != models.TransactionTypeIncome {
		t.Errorf("expected salary to be income, got %+v", processed.Transactions[1])
	}

	// 2. The user confirms the candidates and files the groceries under Comida.
	rows := make([]imports.Row, len(processed.Transactions))
	for i, c := range processed.Transactions {
		rows[i] = imports.Row{Type: string(c.Type), Amount: c.Amount, Description: c.Description, Date: c.Date}
	}
	foodID := int64(food.ID)
	rows[0].CategoryID = &foodID
	rows[2].CategoryID = &foodID
	importBody, _ := json.Marshal(handlers.BulkImportRequest{BudgetID: budget.ID, Transactions: rows})

	rec = app.request("POST", "/api/v1/transactions/bulk", string(importBody), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import failed: %d %s", rec.Code, rec.Body.String())
	}
	committed := parseJSON(t, rec)
	if committed["created"].(float64) != 3 {
		t.Errorf("expected 3 created, got %v", committed["created"])
	}

	// A retried submission is replayed, not stored twice.
	rec = app.request("POST", "/api/v1/transactions/bulk", string(importBody), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay 200, got %d %s", rec.Code, rec.Body.String())
	}
	replayed := parseJSON(t, rec)
	if replayed["duplicate"] != true || replayed["batch_id"] != committed["batch_id"] {
		t.Errorf("expected replay of %v, got %v", committed["batch_id"], replayed)
	}

	var stored, audits int64
	app.DB.Model(&models.Transaction{}).Where("budget_id = ?", budget.ID).Count(&stored)
	app.DB.Model(&models.AuditLog{}).Where("action = ?", imports.AuditAction).Count(&audits)
	if stored != 3 || audits != 1 {
		t.Errorf("expected 3 rows and 1 audit entry, got %d and %d", stored, audits)
	}

	// 3. The import invalidated the cached empty answer.
	after := ask(t)
	if after["metadata"].(map[string]interface{})["cached"] != false {
		t.Error("expected a fresh answer after import")
	}
	if total := after["data"].(map[string]interface{})["total"].(float64); total != 55.2 {
		t.Errorf("expected 55.20 spent on Comida, got %v", total)
	}
	if after["tool_used"] != "sum_by_category" {
		t.Errorf("expected sum_by_category, got %v", after["tool_used"])
	}

	again := ask(t)
	if again["metadata"].(map[string]interface{})["cached"] != true {
		t.Error("expected repeated question to be served from cache")
	}
}

func TestBulkImportAtomicity(t *testing.T) {
	app := setupApp(t)
	user := testutil.CreateTestUser(t, app.DB)
	budget := testutil.CreateTestBudget(t, app.DB, user.ID)
	token := testutil.AccessToken(t, user.ID)

	t.Run("invalid_row_rejects_batch", func(t *testing.T) {
		body := fmt.Sprintf(`{"budgetId":%d,"transactions":[
			{"type":"expense","amount":12.5,"date":"2024-03-01"},
			{"type":"expense","amount":-3,"date":"2024-03-02"},
			{"type":"refund","amount":4,"date":"2024-02-30"}
		]}`, budget.ID)
		rec := app.request("POST", "/api/v1/transactions/bulk", body, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if errorCode(result) != "VALIDATION_FAILED" {
			t.Errorf("expected VALIDATION_FAILED, got %v", result)
		}
		details := result["error"].(map[string]interface{})["details"].([]interface{})
		if len(details) < 3 {
			t.Errorf("expected every offending field reported, got %v", details)
		}
	})

	t.Run("foreign_category_rejects_batch", func(t *testing.T) {
		other := testutil.CreateTestBudget(t, app.DB, user.ID)
		foreign := testutil.CreateTestCategory(t, app.DB, other.ID, "Viajes", 0)
		body := fmt.Sprintf(`{"budgetId":%d,"transactions":[
			{"type":"expense","amount":12.5,"date":"2024-03-01","category_id":%d}
		]}`, budget.ID, foreign.ID)

		rec := app.request("POST", "/api/v1/transactions/bulk", body, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("empty_batch", func(t *testing.T) {
		body := fmt.Sprintf(`{"budgetId":%d,"transactions":[]}`, budget.ID)
		rec := app.request("POST", "/api/v1/transactions/bulk", body, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	var count int64
	app.DB.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("expected nothing stored, got %d rows", count)
	}
}

func TestBudgetOwnership(t *testing.T) {
	app := setupApp(t)
	owner := testutil.CreateTestUser(t, app.DB)
	intruder := testutil.CreateTestUser(t, app.DB)
	budget := testutil.CreateTestBudget(t, app.DB, owner.ID)
	token := testutil.AccessToken(t, intruder.ID)

	requests := []struct {
		path string
		body string
	}{
		{"/api/v1/documents/process", fmt.Sprintf(`{"content":"a;b","format":"csv","budgetId":%d}`, budget.ID)},
		{"/api/v1/transactions/bulk", fmt.Sprintf(`{"budgetId":%d,"transactions":[{"type":"expense","amount":1,"date":"2024-03-01"}]}`, budget.ID)},
		{"/api/v1/assistant/query", fmt.Sprintf(`{"question":"how much did I spend this month","budgetId":%d}`, budget.ID)},
	}
	for _, r := range requests {
		t.Run(r.path, func(t *testing.T) {
			rec := app.request("POST", r.path, r.body, token)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(parseJSON(t, rec)); code != "BUDGET_NOT_FOUND" {
				t.Errorf("expected BUDGET_NOT_FOUND, got %s", code)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/documents/process", "/api/v1/transactions/bulk", "/api/v1/assistant/query"} {
		t.Run(path, func(t *testing.T) {
			rec := app.request("POST", path, `{}`, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if code := errorCode(parseJSON(t, rec)); code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED, got %s", code)
			}
		})
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	newRouter := func(p Pinger) *gin.Engine {
		return New(Deps{
			Documents: handlers.NewDocumentHandler(nil, nil, nil),
			Imports:   handlers.NewImportHandler(nil, nil),
			Assistant: handlers.NewAssistantHandler(nil),
			Health:    p,
		})
	}

	t.Run("ok_without_pinger", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unavailable_when_database_down", func(t *testing.T) {
		down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
		rec := httptest.NewRecorder()
		newRouter(down).ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("cors_preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/v1/assistant/query", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS header")
		}
	})
}
