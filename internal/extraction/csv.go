package extraction

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"pennywise/internal/models"
	"pennywise/internal/textnorm"
)

// csvColumns holds the index of each recognised column, -1 when absent.
type csvColumns struct {
	date, amount, debit, credit, kind, description, category int
}

var headerAliases = map[string][]string{
	"date":        {"date", "fecha", "transaction date", "posted date", "posting date", "booking date", "value date", "fecha operacion", "fecha valor", "fecha contable", "data"},
	"amount":      {"amount", "importe", "monto", "cantidad", "value", "valor", "sum", "total", "amount eur", "amount usd", "importe eur"},
	"debit":       {"debit", "debits", "withdrawal", "withdrawals", "cargo", "cargos", "debe", "paid out", "money out", "outflow", "salida"},
	"credit":      {"credit", "credits", "deposit", "deposits", "abono", "abonos", "haber", "paid in", "money in", "inflow", "entrada"},
	"kind":        {"type", "tipo", "kind", "transaction type", "direction", "movimiento"},
	"description": {"description", "descripcion", "concepto", "details", "detalle", "memo", "merchant", "payee", "narrative", "name", "comercio", "reference", "referencia"},
	"category":    {"category", "categoria"},
}

func extractCSV(ctx context.Context, content string, matcher *categoryMatcher) ([]Candidate, error) {
	content = strings.TrimPrefix(content, "\ufeff")

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = detectDelimiter(content)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		records  [][]string
		firstErr error
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, &Error{Format: FormatCSV, Reason: "read failed", Err: err}
			}
			// Malformed row: skip it and keep reading.
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	if len(records) == 0 {
		if firstErr != nil {
			return nil, &Error{Format: FormatCSV, Reason: "no readable rows", Err: firstErr}
		}
		return []Candidate{}, nil
	}

	cols, hasHeader := detectHeader(records[0])
	rows := records
	if hasHeader {
		rows = records[1:]
	} else if maxWidth(records) < 2 {
		return nil, &Error{Format: FormatCSV, Reason: "no delimited columns found"}
	}

	hint := detectSeparatorHint(amountSamples(rows, cols, hasHeader))
	dp := dateParser{order: inferDateOrder(dateSamples(rows, cols, hasHeader), hint)}

	out := make([]Candidate, 0, len(rows))
	for i, rec := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var (
			c  Candidate
			ok bool
		)
		if hasHeader {
			c, ok = mapRow(rec, cols, dp, hint, matcher)
		} else {
			c, ok = inferRow(rec, dp, hint, matcher)
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// mapRow builds a candidate from a row of a CSV with a recognised header.
func mapRow(rec []string, cols csvColumns, dp dateParser, hint separatorHint, matcher *categoryMatcher) (Candidate, bool) {
	date, ok := dp.parse(cell(rec, cols.date))
	if !ok {
		return Candidate{}, false
	}

	var (
		amount   decimal.Decimal
		explicit models.TransactionType
	)
	if cols.amount >= 0 {
		amount, ok = parseAmount(cell(rec, cols.amount), hint)
		if !ok {
			return Candidate{}, false
		}
	} else {
		if d, dOK := parseAmount(cell(rec, cols.debit), hint); dOK && !d.IsZero() {
			amount, explicit = d.Abs(), models.TransactionTypeExpense
		} else if c, cOK := parseAmount(cell(rec, cols.credit), hint); cOK && !c.IsZero() {
			amount, explicit = c.Abs(), models.TransactionTypeIncome
		} else {
			return Candidate{}, false
		}
	}
	if amount.IsZero() {
		return Candidate{}, false
	}

	kind := classifyType(cell(rec, cols.kind))
	if kind == "" {
		kind = explicit
	}
	if kind == "" {
		kind = typeFromSign(amount)
	}

	desc := strings.TrimSpace(cell(rec, cols.description))
	category := strings.TrimSpace(cell(rec, cols.category))
	if category != "" {
		if known, found := matcher.known(category); found {
			category = known
		}
	} else {
		category = matcher.guess(desc)
	}

	return Candidate{
		Type:        kind,
		Amount:      amount.Abs(),
		Description: desc,
		Date:        date,
		Category:    category,
	}, true
}

// inferRow builds a candidate from a headerless row: the first date-like cell
// is the date, the first amount-like cell after it the amount, and the
// longest remaining text cell the description.
func inferRow(rec []string, dp dateParser, hint separatorHint, matcher *categoryMatcher) (Candidate, bool) {
	dateIdx := -1
	var date string
	for i, v := range rec {
		if d, ok := dp.parse(v); ok {
			dateIdx, date = i, d
			break
		}
	}
	if dateIdx < 0 {
		return Candidate{}, false
	}

	amountIdx := -1
	var amount decimal.Decimal
	order := make([]int, 0, len(rec))
	for i := dateIdx + 1; i < len(rec); i++ {
		order = append(order, i)
	}
	for i := 0; i < dateIdx; i++ {
		order = append(order, i)
	}
	for _, i := range order {
		if !looksLikeAmount(rec[i]) {
			continue
		}
		if a, ok := parseAmount(rec[i], hint); ok && !a.IsZero() {
			amountIdx, amount = i, a
			break
		}
	}
	if amountIdx < 0 {
		return Candidate{}, false
	}

	var desc string
	var kind models.TransactionType
	for i, v := range rec {
		if i == dateIdx || i == amountIdx {
			continue
		}
		if k := classifyType(v); k != "" && kind == "" {
			kind = k
			continue
		}
		v = strings.TrimSpace(v)
		if len(v) > len(desc) && !looksLikeAmount(v) {
			desc = v
		}
	}
	if kind == "" {
		kind = typeFromSign(amount)
	}

	return Candidate{
		Type:        kind,
		Amount:      amount.Abs(),
		Description: desc,
		Date:        date,
		Category:    matcher.guess(desc),
	}, true
}

func detectHeader(rec []string) (csvColumns, bool) {
	cols := csvColumns{date: -1, amount: -1, debit: -1, credit: -1, kind: -1, description: -1, category: -1}
	for i, raw := range rec {
		f := textnorm.Fold(raw)
		if f == "" {
			continue
		}
		for key, aliases := range headerAliases {
			if !slices.Contains(aliases, f) {
				continue
			}
			slot := cols.slot(key)
			if *slot < 0 {
				*slot = i
			}
		}
	}
	ok := cols.date >= 0 && (cols.amount >= 0 || cols.debit >= 0 || cols.credit >= 0)
	return cols, ok
}

func (c *csvColumns) slot(key string) *int {
	switch key {
	case "date":
		return &c.date
	case "amount":
		return &c.amount
	case "debit":
		return &c.debit
	case "credit":
		return &c.credit
	case "kind":
		return &c.kind
	case "description":
		return &c.description
	default:
		return &c.category
	}
}

// classifyType maps a free-text direction marker to a transaction type.
func classifyType(raw string) models.TransactionType {
	s := strings.TrimSpace(raw)
	switch s {
	case "+":
		return models.TransactionTypeIncome
	case "-":
		return models.TransactionTypeExpense
	}
	switch textnorm.Fold(s) {
	case "income", "ingreso", "ingresos", "credit", "cr", "abono", "deposit", "deposito", "in", "haber", "entrada":
		return models.TransactionTypeIncome
	case "expense", "gasto", "gastos", "debit", "dr", "cargo", "withdrawal", "retirada", "out", "payment", "pago", "debe", "salida":
		return models.TransactionTypeExpense
	}
	return ""
}

// typeFromSign follows the statement convention: money out is negative.
func typeFromSign(d decimal.Decimal) models.TransactionType {
	if d.IsNegative() {
		return models.TransactionTypeExpense
	}
	return models.TransactionTypeIncome
}

// detectDelimiter picks the most frequent candidate separator on the first
// non-empty line, ignoring quoted sections.
func detectDelimiter(content string) rune {
	line := content
	for _, l := range strings.SplitN(content, "\n", 10) {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t' || r == '|'):
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, r := range []rune{',', ';', '\t', '|'} {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

func amountSamples(rows [][]string, cols csvColumns, hasHeader bool) []string {
	var out []string
	for _, rec := range rows {
		if hasHeader {
			for _, i := range []int{cols.amount, cols.debit, cols.credit} {
				if v := cell(rec, i); v != "" {
					out = append(out, v)
				}
			}
			continue
		}
		for _, v := range rec {
			if looksLikeAmount(v) && !numericDateRe.MatchString(strings.TrimSpace(v)) && !isoDateRe.MatchString(strings.TrimSpace(v)) {
				out = append(out, v)
			}
		}
	}
	return out
}

func dateSamples(rows [][]string, cols csvColumns, hasHeader bool) []string {
	var out []string
	for _, rec := range rows {
		if hasHeader {
			out = append(out, cell(rec, cols.date))
			continue
		}
		out = append(out, rec...)
	}
	return out
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func maxWidth(records [][]string) int {
	w := 0
	for _, rec := range records {
		if len(rec) > w {
			w = len(rec)
		}
	}
	return w
}
