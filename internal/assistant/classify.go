package assistant

import (
	"strings"
	"time"

	"pennywise/internal/models"
	"pennywise/internal/textnorm"
)

type language int

const (
	english language = iota
	spanish
)

// intent is the outcome of classifying one question.
type intent struct {
	tool         ToolKind
	periods      []Period
	category     *models.Category
	txType       models.TransactionType
	typeExplicit bool
	recent       bool
	lang         language
}

var (
	compareWords = []string{"compare", "comparison", "compared", "versus", "vs", "compara", "comparar", "comparado", "comparacion", "frente a"}
	budgetWords  = []string{"budget", "presupuesto", "remaining", "left", "over budget", "on track", "queda", "quedan", "restante", "limite", "limit"}
	listWords    = []string{"list", "show", "transactions", "transaction", "movements", "lista", "listar", "muestrame", "mostrar", "ensename", "transacciones", "movimientos"}
	amountWords  = []string{"how much", "cuanto", "cuanta", "total", "sum", "suma"}
	sumWords     = []string{"spend", "spent", "spending", "gaste", "gastado", "gastos", "expenses", "income", "ingresos", "earn", "earned"}
	incomeWords  = []string{"income", "earn", "earned", "earnings", "received", "receive", "salary", "ingresos", "ingreso", "ingrese", "gane", "ganado", "cobre", "recibi"}
	expenseWords = []string{"spend", "spent", "spending", "expense", "expenses", "paid", "pay", "gaste", "gastado", "gasto", "gastos", "pague", "pagado"}
	recentWords  = []string{"recent", "latest", "last few", "ultimas", "ultimos", "recientes"}
	spanishWords = []string{
		"cuanto", "cuanta", "gaste", "gastado", "gastos", "este", "esta", "mes", "semana", "ano", "hoy", "ayer",
		"mis", "muestrame", "presupuesto", "que", "cual", "dias", "ingresos", "compara", "comparar", "pasado",
		"pasada", "queda", "en", "de", "el", "la", "los", "las", "y", "transacciones", "movimientos",
	}
)

// detectLanguage answers in Spanish when the question reads as Spanish.
func detectLanguage(question string) language {
	if strings.ContainsAny(question, "¿¡ñÑ") {
		return spanish
	}
	words := strings.Fields(textnorm.Fold(question))
	hits := 0
	for _, w := range words {
		for _, s := range spanishWords {
			if w == s {
				hits++
				break
			}
		}
	}
	if hits >= 2 || (hits == 1 && len(words) <= 3) {
		return spanish
	}
	return english
}

// classify maps a question onto one tool of the closed set. ok is false
// when the question matches no supported intent.
func classify(question string, categories []models.Category, today time.Time) (intent, bool) {
	folded := textnorm.Fold(question)
	in := intent{
		periods: findPeriods(folded, today),
		lang:    detectLanguage(question),
		txType:  models.TransactionTypeExpense,
		recent:  textnorm.ContainsAny(folded, recentWords...),
	}

	switch {
	case textnorm.ContainsAny(folded, incomeWords...):
		in.txType, in.typeExplicit = models.TransactionTypeIncome, true
	case textnorm.ContainsAny(folded, expenseWords...):
		in.typeExplicit = true
	}
	in.category = matchCategory(folded, categories)

	switch {
	case textnorm.ContainsAny(folded, compareWords...):
		in.tool = ToolComparePeriods
	case textnorm.ContainsAny(folded, budgetWords...):
		in.tool = ToolBudgetStatus
	case textnorm.ContainsAny(folded, amountWords...):
		in.tool = ToolSumByCategory
	case textnorm.ContainsAny(folded, listWords...):
		in.tool = ToolListTransactions
	case textnorm.ContainsAny(folded, sumWords...):
		in.tool = ToolSumByCategory
	case in.category != nil && len(in.periods) > 0:
		in.tool = ToolSumByCategory
	default:
		return in, false
	}
	return in, true
}

// matchCategory returns the budget category named in folded text. The
// longest name wins so "Home Insurance" beats "Home".
func matchCategory(folded string, categories []models.Category) *models.Category {
	var (
		best    *models.Category
		bestLen int
	)
	for i := range categories {
		name := textnorm.Fold(categories[i].Name)
		if name == "" {
			continue
		}
		for _, form := range nameForms(name) {
			if textnorm.ContainsPhrase(folded, form) && len(form) > bestLen {
				best, bestLen = &categories[i], len(form)
			}
		}
	}
	return best
}

// nameForms accepts simple singular and plural variants of a category name.
func nameForms(name string) []string {
	forms := []string{name}
	switch {
	case strings.HasSuffix(name, "ies"):
		forms = append(forms, strings.TrimSuffix(name, "ies")+"y")
	case strings.HasSuffix(name, "es"):
		forms = append(forms, strings.TrimSuffix(name, "es"), strings.TrimSuffix(name, "s"))
	case strings.HasSuffix(name, "s"):
		forms = append(forms, strings.TrimSuffix(name, "s"))
	default:
		forms = append(forms, name+"s")
	}
	return forms
}
