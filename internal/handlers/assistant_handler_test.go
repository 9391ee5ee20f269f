package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"pennywise/internal/assistant"
	apperrors "pennywise/internal/errors"
)

func setupAssistantRouter(handler *AssistantHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/assistant/query", handler.Query)
	return r
}

func TestAssistantHandler_Query(t *testing.T) {
	t.Run("returns 200 with answer", func(t *testing.T) {
		var got assistant.Query
		tool := assistant.ToolSumByCategory
		answerer := &mockAnswerer{answerFn: func(q assistant.Query) (*assistant.Answer, error) {
			got = q
			return &assistant.Answer{
				Answer:   "Has gastado 55,20 EUR en Comida este mes.",
				Data:     map[string]any{"total": 55.2},
				ToolUsed: &tool,
				Metadata: assistant.Metadata{BudgetContext: "5"},
			}, nil
		}}
		r := setupAssistantRouter(NewAssistantHandler(answerer))

		rec := doRequest(r, "POST", "/assistant/query",
			`{"question":"¿Cuánto gasté en comida este mes?","budgetId":5,"timezone":"Europe/Madrid"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["tool_used"] != "sum_by_category" {
			t.Errorf("expected tool_used, got %v", result["tool_used"])
		}
		if result["metadata"].(map[string]interface{})["budget_context"] != "5" {
			t.Errorf("expected budget context 5, got %v", result["metadata"])
		}
		if got.UserID != 1 || got.BudgetID == nil || *got.BudgetID != 5 || got.Timezone != "Europe/Madrid" {
			t.Errorf("unexpected query %+v", got)
		}
	})

	t.Run("clarification has no data or tool", func(t *testing.T) {
		answerer := &mockAnswerer{answerFn: func(q assistant.Query) (*assistant.Answer, error) {
			return &assistant.Answer{Answer: "Which period?", NeedsClarification: true, ClarifyingQuestion: "Which period?"}, nil
		}}
		r := setupAssistantRouter(NewAssistantHandler(answerer))

		rec := doRequest(r, "POST", "/assistant/query", `{"question":"how much did I spend"}`)
		result := parseJSON(t, rec)
		if result["needs_clarification"] != true {
			t.Errorf("expected clarification, got %v", result)
		}
		if _, ok := result["data"]; ok {
			t.Error("clarification must not carry data")
		}
		if _, ok := result["tool_used"]; ok {
			t.Error("clarification must not carry tool_used")
		}
	})

	t.Run("returns 400 on missing question", func(t *testing.T) {
		r := setupAssistantRouter(NewAssistantHandler(&mockAnswerer{}))

		rec := doRequest(r, "POST", "/assistant/query", `{"budgetId":5}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on non-positive budget", func(t *testing.T) {
		r := setupAssistantRouter(NewAssistantHandler(&mockAnswerer{}))

		rec := doRequest(r, "POST", "/assistant/query", `{"question":"hi","budgetId":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 502 with safe message", func(t *testing.T) {
		answerer := &mockAnswerer{answerFn: func(assistant.Query) (*assistant.Answer, error) {
			return nil, apperrors.Wrap(apperrors.ErrAssistantUnavailable, errors.New("sql: connection refused"))
		}}
		r := setupAssistantRouter(NewAssistantHandler(answerer))

		rec := doRequest(r, "POST", "/assistant/query", `{"question":"spending today"}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "ASSISTANT_UNAVAILABLE")
		if result["error"].(map[string]interface{})["message"] == "sql: connection refused" {
			t.Error("internal error leaked to client")
		}
	})
}
