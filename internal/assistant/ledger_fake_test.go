package assistant

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

// fakeLedger evaluates filters over an in-memory transaction list.
type fakeLedger struct {
	mu         sync.Mutex
	budgets    []models.Budget
	categories map[uint][]models.Category
	txs        []models.Transaction
	err        error
	queries    int
}

func (l *fakeLedger) Budget(_ context.Context, userID, budgetID uint) (*models.Budget, error) {
	for i := range l.budgets {
		if l.budgets[i].ID == budgetID && l.budgets[i].UserID == userID {
			b := l.budgets[i]
			return &b, nil
		}
	}
	return nil, apperrors.ErrBudgetNotFound
}

func (l *fakeLedger) UserBudgets(_ context.Context, userID uint) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range l.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *fakeLedger) Categories(_ context.Context, budgetID uint) ([]models.Category, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.categories[budgetID], nil
}

func (l *fakeLedger) match(budgetID uint, f Filter) []models.Transaction {
	var out []models.Transaction
	for _, tx := range l.txs {
		if tx.BudgetID != budgetID || tx.Date.Before(f.From) || tx.Date.After(f.To) {
			continue
		}
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *f.CategoryID) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (l *fakeLedger) SumByCategory(_ context.Context, budgetID uint, f Filter) ([]CategoryTotal, error) {
	l.mu.Lock()
	l.queries++
	l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}

	names := map[uint]string{}
	for _, c := range l.categories[budgetID] {
		names[c.ID] = c.Name
	}
	byCategory := map[uint]*CategoryTotal{}
	var order []uint
	for _, tx := range l.match(budgetID, f) {
		var id uint
		if tx.CategoryID != nil {
			id = *tx.CategoryID
		}
		ct, ok := byCategory[id]
		if !ok {
			ct = &CategoryTotal{Name: names[id]}
			if tx.CategoryID != nil {
				cid := id
				ct.CategoryID = &cid
			}
			byCategory[id] = ct
			order = append(order, id)
		}
		ct.Total += tx.Amount
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *byCategory[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func (l *fakeLedger) Transactions(_ context.Context, budgetID uint, f Filter, w pagination.Window) (*pagination.Page[models.Transaction], error) {
	l.mu.Lock()
	l.queries++
	l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	all := l.match(budgetID, f)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	total := int64(len(all))
	w = w.Normalize()
	start := min(w.Offset, len(all))
	end := min(start+w.Limit, len(all))
	page := pagination.NewPage(all[start:end], w, total)
	return &page, nil
}

func (l *fakeLedger) queryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queries
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func uintPtr(v uint) *uint { return &v }

// newFixtureLedger has budget 5 (user 1, EUR) with Comida and Transporte.
func newFixtureLedger() *fakeLedger {
	comida, transporte := uint(10), uint(11)
	budget := models.Budget{UserID: 1, Name: "Casa", Currency: "EUR", Amount: 100000, Period: models.BudgetPeriodMonthly}
	budget.ID = 5

	cats := []models.Category{
		{BudgetID: 5, Name: "Comida", Type: models.CategoryTypeExpense, Limit: 40000},
		{BudgetID: 5, Name: "Transporte", Type: models.CategoryTypeExpense, Limit: 10000},
	}
	cats[0].ID, cats[1].ID = comida, transporte

	tx := func(id uint, date string, amount int64, category *uint, kind models.TransactionType, desc string) models.Transaction {
		t := models.Transaction{BudgetID: 5, CategoryID: category, Type: kind, Amount: amount, Description: desc, Date: day(date)}
		t.ID = id
		return t
	}

	return &fakeLedger{
		budgets:    []models.Budget{budget},
		categories: map[uint][]models.Category{5: cats},
		txs: []models.Transaction{
			tx(1, "2024-03-02", 4520, uintPtr(comida), models.TransactionTypeExpense, "Mercadona"),
			tx(2, "2024-03-10", 1000, uintPtr(comida), models.TransactionTypeExpense, "Lidl"),
			tx(3, "2024-02-28", 999, uintPtr(comida), models.TransactionTypeExpense, "Dia"),
			tx(4, "2024-03-05", 500, uintPtr(transporte), models.TransactionTypeExpense, "Metro"),
			tx(5, "2024-03-01", 250000, nil, models.TransactionTypeIncome, "Nomina"),
		},
	}
}
