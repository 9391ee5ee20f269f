package assistant

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"pennywise/internal/logger"
	"pennywise/internal/testutil"
)

func init() {
	logger.Init("test")
}

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(l Ledger, opts ...Option) *Orchestrator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewOrchestrator(l, opts...)
}

func budgetRef(id uint) *uint { return &id }

func TestAnswer_CategorySum(t *testing.T) {
	ctx := context.Background()

	t.Run("spanish_category_this_month", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "¿Cuánto gasté en comida este mes?", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		if ans.NeedsClarification {
			t.Fatalf("unexpected clarification: %s", ans.ClarifyingQuestion)
		}
		if ans.ToolUsed == nil || *ans.ToolUsed != ToolSumByCategory {
			t.Fatalf("expected sum_by_category, got %v", ans.ToolUsed)
		}
		if ans.Metadata.BudgetContext != "5" {
			t.Errorf("expected budget context 5, got %q", ans.Metadata.BudgetContext)
		}
		data, ok := ans.Data.(sumData)
		if !ok {
			t.Fatalf("expected sumData payload, got %T", ans.Data)
		}
		testutil.AssertMoney(t, "total", data.Total, "55.20")
		if data.Category != "Comida" {
			t.Errorf("expected category Comida, got %q", data.Category)
		}
		if !strings.HasPrefix(ans.Answer, "Gastaste 55.20 EUR") {
			t.Errorf("expected Spanish answer, got %q", ans.Answer)
		}
	})

	t.Run("english_named_month", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "How much did I spend on Comida in February 2024?", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		data := ans.Data.(sumData)
		testutil.AssertMoney(t, "total", data.Total, "9.99")
		if data.Period.From != "2024-02-01" || data.Period.To != "2024-02-29" {
			t.Errorf("unexpected period %+v", data.Period)
		}
		if !strings.Contains(ans.Answer, "You spent 9.99 EUR on Comida in February 2024") {
			t.Errorf("unexpected answer %q", ans.Answer)
		}
	})

	t.Run("income_total", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "what was my income this month", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		data := ans.Data.(sumData)
		testutil.AssertMoney(t, "income", data.Total, "2500")
	})

	t.Run("timezone_sets_calendar_day", func(t *testing.T) {
		o := NewOrchestrator(newFixtureLedger(), WithClock(func() time.Time {
			return time.Date(2024, time.April, 1, 2, 0, 0, 0, time.UTC)
		}))
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "¿Cuánto gasté en comida este mes?", BudgetID: budgetRef(5), Timezone: "America/New_York"})
		testutil.AssertNoError(t, err)

		data := ans.Data.(sumData)
		if data.Period.From != "2024-03-01" {
			t.Errorf("expected March in New York, got %+v", data.Period)
		}
		testutil.AssertMoney(t, "total", data.Total, "55.20")
	})
}

func TestAnswer_Clarification(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
	}{
		{"no_time_range", "how much did I spend"},
		{"unsupported_intent", "tell me a joke"},
		{"spanish_no_time_range", "¿Cuánto gasté en comida?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(newFixtureLedger())
			ans, err := o.Answer(ctx, Query{UserID: 1, Question: tt.question, BudgetID: budgetRef(5)})
			testutil.AssertNoError(t, err)

			if !ans.NeedsClarification {
				t.Fatal("expected needs_clarification")
			}
			if ans.ClarifyingQuestion == "" {
				t.Error("expected a clarifying question")
			}
			if ans.Data != nil || ans.ToolUsed != nil {
				t.Errorf("clarification must not carry data or tool, got %v %v", ans.Data, ans.ToolUsed)
			}
		})
	}
}

func TestAnswer_BudgetResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("single_budget_used_implicitly", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "how much did I spend this month"})
		testutil.AssertNoError(t, err)
		if ans.Metadata.BudgetContext != "5" {
			t.Errorf("expected budget 5, got %q", ans.Metadata.BudgetContext)
		}
	})

	t.Run("several_budgets_need_clarification", func(t *testing.T) {
		l := newFixtureLedger()
		extra := l.budgets[0]
		extra.ID, extra.Name = 6, "Viajes"
		l.budgets = append(l.budgets, extra)

		o := newTestOrchestrator(l)
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "how much did I spend this month"})
		testutil.AssertNoError(t, err)
		if !ans.NeedsClarification || !strings.Contains(ans.ClarifyingQuestion, "Viajes") {
			t.Errorf("expected budget clarification, got %+v", ans)
		}
	})

	t.Run("foreign_budget", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		_, err := o.Answer(ctx, Query{UserID: 2, Question: "how much did I spend this month", BudgetID: budgetRef(5)})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestAnswer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_question", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		_, err := o.Answer(ctx, Query{UserID: 1, Question: "   ", BudgetID: budgetRef(5)})
		testutil.AssertAppError(t, err, "INVALID_QUESTION")
	})

	t.Run("too_long_question", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		_, err := o.Answer(ctx, Query{UserID: 1, Question: strings.Repeat("a", MaxQuestionLength+1), BudgetID: budgetRef(5)})
		testutil.AssertAppError(t, err, "INVALID_QUESTION")
	})

	t.Run("unknown_timezone", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		_, err := o.Answer(ctx, Query{UserID: 1, Question: "how much did I spend today", BudgetID: budgetRef(5), Timezone: "Mars/Olympus"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("ledger_failure_is_not_leaked", func(t *testing.T) {
		l := newFixtureLedger()
		l.err = errors.New("dial tcp 10.0.0.3:5432: password authentication failed")
		o := newTestOrchestrator(l)

		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "how much did I spend this month", BudgetID: budgetRef(5)})
		testutil.AssertAppError(t, err, "ASSISTANT_UNAVAILABLE")
		if ans != nil {
			t.Errorf("expected no partial answer, got %+v", ans)
		}
		if strings.Contains(err.Error(), "password") {
			t.Errorf("internal detail leaked: %s", err.Error())
		}
	})
}

func TestAnswer_Tools(t *testing.T) {
	ctx := context.Background()

	t.Run("list_is_capped_and_signalled", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger(), WithDisplayCap(3))
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "show my transactions this month", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		if *ans.ToolUsed != ToolListTransactions {
			t.Fatalf("expected list_transactions, got %s", *ans.ToolUsed)
		}
		data := ans.Data.(listData)
		if len(data.Transactions) != 3 {
			t.Errorf("expected 3 items shown, got %d", len(data.Transactions))
		}
		if ans.Metadata.TotalCount == nil || *ans.Metadata.TotalCount != 4 {
			t.Errorf("expected total_count 4, got %v", ans.Metadata.TotalCount)
		}
		if ans.Metadata.ShowingFirst == nil || *ans.Metadata.ShowingFirst != 3 {
			t.Errorf("expected showing_first 3, got %v", ans.Metadata.ShowingFirst)
		}
		if data.Transactions[0].Date != "2024-03-10" {
			t.Errorf("expected newest first, got %s", data.Transactions[0].Date)
		}
	})

	t.Run("full_list_is_not_signalled_as_truncated", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger(), WithDisplayCap(10))
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "show my transactions this month", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		if n := len(ans.Data.(listData).Transactions); n != 4 {
			t.Errorf("expected all 4 items, got %d", n)
		}
		if ans.Metadata.TotalCount != nil || ans.Metadata.ShowingFirst != nil {
			t.Errorf("expected no truncation metadata, got %+v", ans.Metadata)
		}
	})

	t.Run("recent_list_defaults_to_thirty_days", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "show my recent transactions", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)
		data := ans.Data.(listData)
		if data.Period.From != "2024-02-15" || data.Period.To != "2024-03-15" {
			t.Errorf("unexpected period %+v", data.Period)
		}
	})

	t.Run("budget_status_defaults_to_current_period", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "how is my budget doing?", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		if *ans.ToolUsed != ToolBudgetStatus {
			t.Fatalf("expected budget_status, got %s", *ans.ToolUsed)
		}
		data := ans.Data.(statusData)
		testutil.AssertMoney(t, "spent", data.Spent, "60.20")
		testutil.AssertMoney(t, "remaining", data.Remaining, "939.80")
		if len(data.Categories) != 2 {
			t.Errorf("expected 2 category limits, got %d", len(data.Categories))
		}
	})

	t.Run("compare_two_named_periods", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "compare this month vs last month", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)

		if *ans.ToolUsed != ToolComparePeriods {
			t.Fatalf("expected compare_periods, got %s", *ans.ToolUsed)
		}
		data := ans.Data.(compareData)
		testutil.AssertMoney(t, "current", data.Current.Total, "60.20")
		testutil.AssertMoney(t, "previous", data.Previous.Total, "9.99")
		if data.Previous.Period.From != "2024-02-01" {
			t.Errorf("expected February as previous, got %+v", data.Previous.Period)
		}
	})

	t.Run("compare_single_period_uses_preceding", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger())
		ans, err := o.Answer(ctx, Query{UserID: 1, Question: "compara mis gastos de este mes", BudgetID: budgetRef(5)})
		testutil.AssertNoError(t, err)
		data := ans.Data.(compareData)
		if data.Previous.Period.From != "2024-02-01" || data.Previous.Period.To != "2024-02-29" {
			t.Errorf("expected February, got %+v", data.Previous.Period)
		}
	})
}

func TestAnswer_Cache(t *testing.T) {
	ctx := context.Background()
	q := Query{UserID: 1, Question: "¿Cuánto gasté en comida este mes?", BudgetID: budgetRef(5)}

	t.Run("second_call_is_cached", func(t *testing.T) {
		l := newFixtureLedger()
		o := newTestOrchestrator(l, WithCache(NewMemoryCache(time.Minute)))

		first, err := o.Answer(ctx, q)
		testutil.AssertNoError(t, err)
		queries := l.queryCount()

		second, err := o.Answer(ctx, q)
		testutil.AssertNoError(t, err)

		if first.Metadata.Cached {
			t.Error("first answer must not be cached")
		}
		if !second.Metadata.Cached {
			t.Error("second answer must be cached")
		}
		if second.Answer != first.Answer || !reflect.DeepEqual(second.Data, first.Data) {
			t.Errorf("cached answer differs: %+v vs %+v", second, first)
		}
		if l.queryCount() != queries {
			t.Errorf("cached answer must not query the ledger")
		}
	})

	t.Run("invalidation_forces_recompute", func(t *testing.T) {
		l := newFixtureLedger()
		cache := NewMemoryCache(time.Minute)
		o := newTestOrchestrator(l, WithCache(cache))

		_, err := o.Answer(ctx, q)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, cache.Invalidate(ctx, 5))

		l.txs = append(l.txs, l.txs[0])
		l.txs[len(l.txs)-1].ID = 99

		ans, err := o.Answer(ctx, q)
		testutil.AssertNoError(t, err)
		if ans.Metadata.Cached {
			t.Fatal("expected recomputed answer after invalidation")
		}
		testutil.AssertMoney(t, "fresh total", ans.Data.(sumData).Total, "100.40")
	})

	t.Run("clarifications_are_not_cached", func(t *testing.T) {
		o := newTestOrchestrator(newFixtureLedger(), WithCache(NewMemoryCache(time.Minute)))
		vague := Query{UserID: 1, Question: "how much did I spend", BudgetID: budgetRef(5)}
		_, err := o.Answer(ctx, vague)
		testutil.AssertNoError(t, err)
		ans, err := o.Answer(ctx, vague)
		testutil.AssertNoError(t, err)
		if ans.Metadata.Cached {
			t.Error("clarification must not be served from cache")
		}
	})
}
