package assistant

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

type categoryAmount struct {
	CategoryID *uint           `json:"category_id,omitempty"`
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

type sumData struct {
	Period    periodData             `json:"period"`
	Type      models.TransactionType `json:"type"`
	Category  string                 `json:"category,omitempty"`
	Total     decimal.Decimal        `json:"total"`
	Count     int64                  `json:"count"`
	Currency  string                 `json:"currency"`
	Breakdown []categoryAmount       `json:"breakdown"`
}

type transactionItem struct {
	ID          uint                   `json:"id"`
	Date        string                 `json:"date"`
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category,omitempty"`
}

type listData struct {
	Period       periodData        `json:"period"`
	Currency     string            `json:"currency"`
	Transactions []transactionItem `json:"transactions"`
}

type categoryStatus struct {
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

type statusData struct {
	Period     periodData       `json:"period"`
	Currency   string           `json:"currency"`
	Budgeted   decimal.Decimal  `json:"budgeted"`
	Spent      decimal.Decimal  `json:"spent"`
	Remaining  decimal.Decimal  `json:"remaining"`
	Percentage decimal.Decimal  `json:"percentage"`
	Categories []categoryStatus `json:"categories"`
}

type periodTotal struct {
	Period periodData      `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

type compareData struct {
	Type          models.TransactionType `json:"type"`
	Category      string                 `json:"category,omitempty"`
	Currency      string                 `json:"currency"`
	Current       periodTotal            `json:"current"`
	Previous      periodTotal            `json:"previous"`
	Difference    decimal.Decimal        `json:"difference"`
	ChangePercent *decimal.Decimal       `json:"change_percent,omitempty"`
}

func (o *Orchestrator) sumByCategory(ctx context.Context, call toolCall) (*toolResult, error) {
	in := call.intent
	p := in.periods[0]
	f := filterFor(p, &in.txType, in.category)

	rows, err := o.ledger.SumByCategory(ctx, call.budget.ID, f)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}

	var total, count int64
	for _, r := range rows {
		total += r.Total
		count += r.Count
	}

	shown := rows
	if len(shown) > o.displayCap {
		shown = shown[:o.displayCap]
	}
	breakdown := make([]categoryAmount, len(shown))
	for i, r := range shown {
		breakdown[i] = categoryAmount{
			CategoryID: r.CategoryID,
			Category:   r.Name,
			Total:      models.DecimalFromCents(r.Total),
			Count:      r.Count,
		}
	}

	data := sumData{
		Period:    p.data(in.lang),
		Type:      in.txType,
		Total:     models.DecimalFromCents(total),
		Count:     count,
		Currency:  call.budget.Currency,
		Breakdown: breakdown,
	}
	if in.category != nil {
		data.Category = in.category.Name
	}

	return &toolResult{
		text:  sumText(in.lang, in.txType, total, count, call.budget.Currency, in.category, p),
		data:  data,
		total: len(rows),
		shown: len(shown),
		paged: len(rows) > len(shown),
	}, nil
}

func (o *Orchestrator) listTransactions(ctx context.Context, call toolCall) (*toolResult, error) {
	in := call.intent
	p := in.periods[0]
	var kind *models.TransactionType
	if in.typeExplicit {
		kind = &in.txType
	}

	page, err := o.ledger.Transactions(ctx, call.budget.ID, filterFor(p, kind, in.category), pagination.First(o.displayCap))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := page.Items
	if len(txs) > o.displayCap {
		txs = txs[:o.displayCap]
	}

	items := make([]transactionItem, len(txs))
	for i, tx := range txs {
		item := transactionItem{
			ID:          tx.ID,
			Date:        tx.Date.Format(dateLayout),
			Type:        tx.Type,
			Amount:      models.DecimalFromCents(tx.Amount),
			Description: tx.Description,
		}
		if tx.Category != nil {
			item.Category = tx.Category.Name
		}
		items[i] = item
	}

	n := int(page.Total)
	return &toolResult{
		text:  listText(in.lang, n, len(items), p),
		data:  listData{Period: p.data(in.lang), Currency: call.budget.Currency, Transactions: items},
		total: n,
		shown: len(items),
		paged: page.Truncated() || len(items) < len(page.Items),
	}, nil
}

func (o *Orchestrator) budgetStatus(ctx context.Context, call toolCall) (*toolResult, error) {
	in := call.intent
	p := in.periods[0]
	expense := models.TransactionTypeExpense

	rows, err := o.ledger.SumByCategory(ctx, call.budget.ID, filterFor(p, &expense, nil))
	if err != nil {
		return nil, fmt.Errorf("budget status: %w", err)
	}

	var spent int64
	spentByCategory := make(map[uint]int64, len(rows))
	for _, r := range rows {
		spent += r.Total
		if r.CategoryID != nil {
			spentByCategory[*r.CategoryID] = r.Total
		}
	}

	var statuses []categoryStatus
	for _, c := range call.categories {
		if c.Limit <= 0 || c.Type == models.CategoryTypeIncome {
			continue
		}
		used := spentByCategory[c.ID]
		statuses = append(statuses, categoryStatus{
			Category:  c.Name,
			Limit:     models.DecimalFromCents(c.Limit),
			Spent:     models.DecimalFromCents(used),
			Remaining: models.DecimalFromCents(c.Limit - used),
		})
	}
	total := len(statuses)
	if len(statuses) > o.displayCap {
		statuses = statuses[:o.displayCap]
	}
	if statuses == nil {
		statuses = []categoryStatus{}
	}

	budgeted := call.budget.Amount
	pct := decimal.Zero
	if budgeted > 0 {
		pct = decimal.NewFromInt(spent).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(budgeted)).Round(1)
	}

	return &toolResult{
		text: statusText(in.lang, budgeted, spent, pct, call.budget.Currency, p),
		data: statusData{
			Period:     p.data(in.lang),
			Currency:   call.budget.Currency,
			Budgeted:   models.DecimalFromCents(budgeted),
			Spent:      models.DecimalFromCents(spent),
			Remaining:  models.DecimalFromCents(budgeted - spent),
			Percentage: pct,
			Categories: statuses,
		},
		total: total,
		shown: len(statuses),
		paged: total > len(statuses),
	}, nil
}

func (o *Orchestrator) comparePeriods(ctx context.Context, call toolCall) (*toolResult, error) {
	in := call.intent
	cur := in.periods[0]
	prev := cur.previous()
	if len(in.periods) > 1 {
		prev = in.periods[1]
	}

	curTotal, err := o.total(ctx, call.budget.ID, filterFor(cur, &in.txType, in.category))
	if err != nil {
		return nil, fmt.Errorf("compare current period: %w", err)
	}
	prevTotal, err := o.total(ctx, call.budget.ID, filterFor(prev, &in.txType, in.category))
	if err != nil {
		return nil, fmt.Errorf("compare previous period: %w", err)
	}

	var change *decimal.Decimal
	if prevTotal > 0 {
		c := decimal.NewFromInt(curTotal - prevTotal).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(prevTotal)).Round(1)
		change = &c
	}

	data := compareData{
		Type:          in.txType,
		Currency:      call.budget.Currency,
		Current:       periodTotal{Period: cur.data(in.lang), Total: models.DecimalFromCents(curTotal)},
		Previous:      periodTotal{Period: prev.data(in.lang), Total: models.DecimalFromCents(prevTotal)},
		Difference:    models.DecimalFromCents(curTotal - prevTotal),
		ChangePercent: change,
	}
	if in.category != nil {
		data.Category = in.category.Name
	}

	return &toolResult{
		text: compareText(in.lang, in.txType, curTotal, prevTotal, change, call.budget.Currency, cur, prev),
		data: data,
	}, nil
}

func (o *Orchestrator) total(ctx context.Context, budgetID uint, f Filter) (int64, error) {
	rows, err := o.ledger.SumByCategory(ctx, budgetID, f)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, r := range rows {
		sum += r.Total
	}
	return sum, nil
}

func filterFor(p Period, kind *models.TransactionType, category *models.Category) Filter {
	f := Filter{From: p.From, To: p.To, Type: kind}
	if category != nil {
		id := category.ID
		f.CategoryID = &id
	}
	return f
}
