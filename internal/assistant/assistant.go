// Package assistant answers natural-language questions about a budget by
// mapping each question onto one tool from a fixed set.
//
// The orchestrator keeps no state between calls. A question that lacks a
// required parameter gets a clarification answer and the caller re-asks.
package assistant

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/logger"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
	"pennywise/internal/textnorm"
)

// MaxQuestionLength is the longest accepted question, in characters.
const MaxQuestionLength = 1000

// DefaultDisplayCap is how many items a list answer shows.
const DefaultDisplayCap = 20

// ToolKind names one supported financial query.
type ToolKind string

const (
	ToolSumByCategory    ToolKind = "sum_by_category"
	ToolListTransactions ToolKind = "list_transactions"
	ToolBudgetStatus     ToolKind = "budget_status"
	ToolComparePeriods   ToolKind = "compare_periods"
)

// Query is one question turn.
type Query struct {
	UserID   uint
	Question string
	BudgetID *uint
	Timezone string
}

// Metadata describes how an answer was produced.
type Metadata struct {
	TotalCount    *int   `json:"total_count,omitempty"`
	ShowingFirst  *int   `json:"showing_first,omitempty"`
	BudgetContext string `json:"budget_context,omitempty"`
	Cached        bool   `json:"cached"`
}

// Answer is the orchestrator response. A clarification carries neither Data
// nor ToolUsed.
type Answer struct {
	Answer             string    `json:"answer"`
	Data               any       `json:"data,omitempty"`
	ToolUsed           *ToolKind `json:"tool_used,omitempty"`
	NeedsClarification bool      `json:"needs_clarification"`
	ClarifyingQuestion string    `json:"clarifying_question,omitempty"`
	Metadata           Metadata  `json:"metadata"`
}

// Filter narrows ledger queries. From and To are inclusive calendar dates.
type Filter struct {
	From       time.Time
	To         time.Time
	Type       *models.TransactionType
	CategoryID *uint
}

// CategoryTotal is the sum of matching transactions in one category.
// CategoryID is nil for uncategorised transactions.
type CategoryTotal struct {
	CategoryID *uint
	Name       string
	Total      int64
	Count      int64
}

// Ledger is the read-only budget data the tools run against.
type Ledger interface {
	Budget(ctx context.Context, userID, budgetID uint) (*models.Budget, error)
	UserBudgets(ctx context.Context, userID uint) ([]models.Budget, error)
	Categories(ctx context.Context, budgetID uint) ([]models.Category, error)
	// SumByCategory returns totals ordered by Total descending.
	SumByCategory(ctx context.Context, budgetID uint, f Filter) ([]CategoryTotal, error)
	// Transactions returns the window w of matches, newest first, with the
	// total match count.
	Transactions(ctx context.Context, budgetID uint, f Filter, w pagination.Window) (*pagination.Page[models.Transaction], error)
}

type toolCall struct {
	budget     *models.Budget
	categories []models.Category
	intent     intent
	today      time.Time
}

type toolResult struct {
	text  string
	data  any
	total int
	shown int
	paged bool
}

type toolFunc func(ctx context.Context, call toolCall) (*toolResult, error)

// Orchestrator answers questions for authenticated users.
type Orchestrator struct {
	ledger     Ledger
	cache      Cache
	displayCap int
	now        func() time.Time
	tools      map[ToolKind]toolFunc
	log        *zap.SugaredLogger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithCache enables answer caching.
func WithCache(c Cache) Option { return func(o *Orchestrator) { o.cache = c } }

// WithDisplayCap sets how many list items an answer shows.
func WithDisplayCap(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.displayCap = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// NewOrchestrator creates an Orchestrator over ledger.
func NewOrchestrator(ledger Ledger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ledger:     ledger,
		displayCap: DefaultDisplayCap,
		now:        time.Now,
		log:        logger.Named("assistant"),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.tools = map[ToolKind]toolFunc{
		ToolSumByCategory:    o.sumByCategory,
		ToolListTransactions: o.listTransactions,
		ToolBudgetStatus:     o.budgetStatus,
		ToolComparePeriods:   o.comparePeriods,
	}
	return o
}

// Answer runs one question through classification and tool execution.
// Errors are AppErrors; tool and storage failures surface as
// ErrAssistantUnavailable with the cause logged.
func (o *Orchestrator) Answer(ctx context.Context, q Query) (*Answer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" || utf8.RuneCountInString(question) > MaxQuestionLength {
		return nil, apperrors.ErrInvalidQuestion
	}
	loc, err := loadLocation(q.Timezone)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown timezone: "+q.Timezone)
	}
	lang := detectLanguage(question)

	budget, clarification, err := o.resolveBudget(ctx, q, lang)
	if err != nil {
		return nil, err
	}
	if clarification != nil {
		return clarification, nil
	}

	today := civilToday(o.now(), loc)
	key := cacheKey(budget.ID, loc, today, question)

	var version uint64
	if o.cache != nil {
		if version, err = o.cache.Version(ctx, budget.ID); err != nil {
			o.log.Warnw("Assistant cache unavailable", "budget_id", budget.ID, "error", err)
		} else if hit, ok, err := o.cache.Get(ctx, budget.ID, key); err != nil {
			o.log.Warnw("Assistant cache read failed", "budget_id", budget.ID, "error", err)
		} else if ok {
			hit.Metadata.Cached = true
			return hit, nil
		}
	}

	categories, err := o.ledger.Categories(ctx, budget.ID)
	if err != nil {
		return nil, o.failed(q, budget.ID, err)
	}

	in, ok := classify(question, categories, today)
	if !ok {
		return clarify(budget.ID, unsupportedQuestion[lang]), nil
	}
	if len(in.periods) == 0 {
		switch {
		case in.tool == ToolBudgetStatus:
			in.periods = []Period{budgetPeriod(budget, today)}
		case in.tool == ToolListTransactions && in.recent:
			in.periods = []Period{{From: today.AddDate(0, 0, -29), To: today, kind: kindSpan}}
		default:
			return clarify(budget.ID, missingPeriod[lang]), nil
		}
	}

	run, ok := o.tools[in.tool]
	if !ok {
		return nil, o.failed(q, budget.ID, errors.New("no handler for tool "+string(in.tool)))
	}
	res, err := run(ctx, toolCall{budget: budget, categories: categories, intent: in, today: today})
	if err != nil {
		return nil, o.failed(q, budget.ID, err)
	}

	tool := in.tool
	ans := &Answer{
		Answer:   res.text,
		Data:     res.data,
		ToolUsed: &tool,
		Metadata: Metadata{BudgetContext: budgetContext(budget.ID)},
	}
	if res.paged {
		total, shown := res.total, res.shown
		ans.Metadata.TotalCount = &total
		ans.Metadata.ShowingFirst = &shown
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, budget.ID, key, ans, version); err != nil {
			o.log.Warnw("Assistant cache write failed", "budget_id", budget.ID, "error", err)
		}
	}

	o.log.Infow("Question answered", "budget_id", budget.ID, "tool", tool)
	return ans, nil
}

// resolveBudget finds the budget a question is about. Without an explicit
// reference the user's only budget is used; several budgets need a
// clarification turn.
func (o *Orchestrator) resolveBudget(ctx context.Context, q Query, lang language) (*models.Budget, *Answer, error) {
	if q.BudgetID != nil {
		b, err := o.ledger.Budget(ctx, q.UserID, *q.BudgetID)
		if err != nil {
			if errors.Is(err, apperrors.ErrBudgetNotFound) {
				return nil, nil, err
			}
			return nil, nil, o.failed(q, *q.BudgetID, err)
		}
		return b, nil, nil
	}

	budgets, err := o.ledger.UserBudgets(ctx, q.UserID)
	if err != nil {
		return nil, nil, o.failed(q, 0, err)
	}
	switch len(budgets) {
	case 0:
		return nil, &Answer{Answer: noBudgets[lang]}, nil
	case 1:
		return &budgets[0], nil, nil
	}

	names := make([]string, len(budgets))
	for i, b := range budgets {
		names[i] = b.Name
	}
	return nil, clarify(0, whichBudget[lang]+" "+strings.Join(names, ", ")), nil
}

func (o *Orchestrator) failed(q Query, budgetID uint, err error) error {
	o.log.Errorw("Assistant query failed", "user_id", q.UserID, "budget_id", budgetID, "error", err)
	return apperrors.Wrap(apperrors.ErrAssistantUnavailable, err)
}

func clarify(budgetID uint, question string) *Answer {
	return &Answer{
		Answer:             question,
		NeedsClarification: true,
		ClarifyingQuestion: question,
		Metadata:           Metadata{BudgetContext: budgetContext(budgetID)},
	}
}

func budgetContext(budgetID uint) string {
	if budgetID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(budgetID), 10)
}

// budgetPeriod is the budget's current period containing today.
func budgetPeriod(b *models.Budget, today time.Time) Period {
	if b.Period == models.BudgetPeriodYearly {
		return yearPeriod(today.Year())
	}
	return monthPeriod(today.Year(), today.Month())
}

func loadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// cacheKey scopes a cached answer to the budget, the user's calendar day and
// the folded question, so relative periods never outlive their day.
func cacheKey(budgetID uint, loc *time.Location, today time.Time, question string) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(budgetID), 10),
		loc.String(),
		today.Format(dateLayout),
		textnorm.Fold(question),
	}, "|")
}
