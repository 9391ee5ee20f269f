package assistant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pennywise/internal/models"
)

var (
	missingPeriod = map[language]string{
		english: "For which period? For example: this month, last week or March 2024.",
		spanish: "¿De qué periodo? Por ejemplo: este mes, la semana pasada o marzo de 2024.",
	}
	unsupportedQuestion = map[language]string{
		english: "I can total your spending by category, list transactions, check your budget status or compare two periods. What would you like to know?",
		spanish: "Puedo sumar tus gastos por categoría, listar transacciones, revisar el estado de tu presupuesto o comparar dos periodos. ¿Qué quieres saber?",
	}
	whichBudget = map[language]string{
		english: "Which budget do you mean?",
		spanish: "¿A qué presupuesto te refieres?",
	}
	noBudgets = map[language]string{
		english: "You don't have a budget yet. Create one to start asking questions.",
		spanish: "Todavía no tienes ningún presupuesto. Crea uno para empezar a hacer preguntas.",
	}
)

func money(cents int64, currency string) string {
	return models.DecimalFromCents(cents).StringFixed(2) + " " + currency
}

func sumText(lang language, kind models.TransactionType, total int64, count int64, currency string, category *models.Category, p Period) string {
	amount := money(total, currency)
	switch lang {
	case spanish:
		verb := "Gastaste"
		if kind == models.TransactionTypeIncome {
			verb = "Ingresaste"
		}
		if category != nil {
			return fmt.Sprintf("%s %s en %s %s (%d transacciones).", verb, amount, category.Name, p.phrase(lang), count)
		}
		return fmt.Sprintf("%s %s %s en %d transacciones.", verb, amount, p.phrase(lang), count)
	default:
		verb := "You spent"
		prep := "on"
		if kind == models.TransactionTypeIncome {
			verb, prep = "You received", "from"
		}
		if category != nil {
			return fmt.Sprintf("%s %s %s %s %s (%d transactions).", verb, amount, prep, category.Name, p.phrase(lang), count)
		}
		return fmt.Sprintf("%s %s %s across %d transactions.", verb, amount, p.phrase(lang), count)
	}
}

func listText(lang language, total, shown int, p Period) string {
	if lang == spanish {
		if total > shown {
			return fmt.Sprintf("Encontré %d transacciones %s. Mostrando las primeras %d.", total, p.phrase(lang), shown)
		}
		return fmt.Sprintf("Encontré %d transacciones %s.", total, p.phrase(lang))
	}
	if total > shown {
		return fmt.Sprintf("Found %d transactions %s. Showing the first %d.", total, p.phrase(lang), shown)
	}
	return fmt.Sprintf("Found %d transactions %s.", total, p.phrase(lang))
}

func statusText(lang language, budgeted, spent int64, pct decimal.Decimal, currency string, p Period) string {
	remaining := budgeted - spent
	switch {
	case budgeted <= 0 && lang == spanish:
		return fmt.Sprintf("Este presupuesto no tiene un importe definido. Has gastado %s %s.", money(spent, currency), p.phrase(lang))
	case budgeted <= 0:
		return fmt.Sprintf("This budget has no amount set. You have spent %s %s.", money(spent, currency), p.phrase(lang))
	case remaining < 0 && lang == spanish:
		return fmt.Sprintf("Has gastado %s de %s %s (%s%%). Te has pasado %s.", money(spent, currency), money(budgeted, currency), p.phrase(lang), pct.StringFixed(1), money(-remaining, currency))
	case remaining < 0:
		return fmt.Sprintf("You have spent %s of %s %s (%s%%). You are %s over budget.", money(spent, currency), money(budgeted, currency), p.phrase(lang), pct.StringFixed(1), money(-remaining, currency))
	case lang == spanish:
		return fmt.Sprintf("Has gastado %s de %s %s (%s%%). Te quedan %s.", money(spent, currency), money(budgeted, currency), p.phrase(lang), pct.StringFixed(1), money(remaining, currency))
	}
	return fmt.Sprintf("You have spent %s of %s %s (%s%%). %s left.", money(spent, currency), money(budgeted, currency), p.phrase(lang), pct.StringFixed(1), money(remaining, currency))
}

func compareText(lang language, kind models.TransactionType, cur, prev int64, change *decimal.Decimal, currency string, curP, prevP Period) string {
	diff := cur - prev
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	pct := ""
	if change != nil {
		pct = fmt.Sprintf(" (%s%%)", signed(*change))
	}

	if lang == spanish {
		verb := "Gastaste"
		if kind == models.TransactionTypeIncome {
			verb = "Ingresaste"
		}
		direction := "más"
		if diff < 0 {
			direction = "menos"
		}
		if diff == 0 {
			return fmt.Sprintf("%s %s %s, lo mismo que %s.", verb, money(cur, currency), curP.phrase(lang), prevP.phrase(lang))
		}
		return fmt.Sprintf("%s %s %s frente a %s %s: %s %s%s.", verb, money(cur, currency), curP.phrase(lang), money(prev, currency), prevP.phrase(lang), money(abs, currency), direction, pct)
	}

	verb := "You spent"
	if kind == models.TransactionTypeIncome {
		verb = "You received"
	}
	direction := "more"
	if diff < 0 {
		direction = "less"
	}
	if diff == 0 {
		return fmt.Sprintf("%s %s %s, the same as %s.", verb, money(cur, currency), curP.phrase(lang), prevP.phrase(lang))
	}
	return fmt.Sprintf("%s %s %s versus %s %s, %s %s%s.", verb, money(cur, currency), curP.phrase(lang), money(prev, currency), prevP.phrase(lang), money(abs, currency), direction, pct)
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(1)
	}
	return d.StringFixed(1)
}
