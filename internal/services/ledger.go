package services

import (
	"context"
	"time"

	"pennywise/internal/assistant"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

// Ledger exposes budget data to the assistant tools.
type Ledger struct {
	budgets      BudgetServicer
	categories   CategoryServicer
	transactions TransactionServicer
}

// NewLedger creates an assistant.Ledger over the data services.
func NewLedger(budgets BudgetServicer, categories CategoryServicer, transactions TransactionServicer) *Ledger {
	return &Ledger{budgets: budgets, categories: categories, transactions: transactions}
}

var _ assistant.Ledger = (*Ledger)(nil)

func (l *Ledger) Budget(ctx context.Context, userID, budgetID uint) (*models.Budget, error) {
	return l.budgets.GetBudgetByID(ctx, userID, budgetID)
}

func (l *Ledger) UserBudgets(ctx context.Context, userID uint) ([]models.Budget, error) {
	return l.budgets.GetUserBudgets(ctx, userID)
}

func (l *Ledger) Categories(ctx context.Context, budgetID uint) ([]models.Category, error) {
	return l.categories.GetBudgetCategories(ctx, budgetID)
}

func (l *Ledger) SumByCategory(ctx context.Context, budgetID uint, f assistant.Filter) ([]assistant.CategoryTotal, error) {
	return l.transactions.SumByCategory(ctx, budgetID, filterFrom(f))
}

func (l *Ledger) Transactions(ctx context.Context, budgetID uint, f assistant.Filter, w pagination.Window) (*pagination.Page[models.Transaction], error) {
	return l.transactions.GetBudgetTransactions(ctx, budgetID, w, filterFrom(f))
}

// filterFrom widens the assistant's inclusive calendar range to cover the
// whole of the last day.
func filterFrom(f assistant.Filter) TransactionFilter {
	from := f.From
	to := f.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return TransactionFilter{FromDate: &from, ToDate: &to, Type: f.Type, CategoryID: f.CategoryID}
}

// ImportStore persists bulk imports.
type ImportStore struct {
	categories   CategoryServicer
	transactions TransactionServicer
}

// NewImportStore creates an imports.Store over the data services.
func NewImportStore(categories CategoryServicer, transactions TransactionServicer) *ImportStore {
	return &ImportStore{categories: categories, transactions: transactions}
}

func (s *ImportStore) CategoryIDs(ctx context.Context, budgetID uint) (map[uint]struct{}, error) {
	return s.categories.GetCategoryIDs(ctx, budgetID)
}

func (s *ImportStore) FindBatch(ctx context.Context, budgetID uint, fingerprint string, since time.Time) (*models.ImportBatch, error) {
	return s.transactions.FindImportBatch(ctx, budgetID, fingerprint, since)
}

func (s *ImportStore) CreateBatch(ctx context.Context, batch *models.ImportBatch, txs []models.Transaction) error {
	return s.transactions.CreateImportBatch(ctx, batch, txs)
}
