package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"pennywise/internal/models"
	"pennywise/internal/textnorm"
)

var (
	moneyTokenRe     = regexp.MustCompile(`^\(?[-+−]?[$€£]?[-+−]?\d[\d.,']*[.,]\d{2}\)?[-+]?[$€£]?$`)
	shortNumericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
	yearRe           = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Lines whose description mentions one of these are statement summaries.
var summaryPhrases = []string{
	"balance", "saldo", "total", "subtotal", "opening", "closing", "brought forward",
	"carried forward", "saldo anterior", "saldo final", "statement", "extracto", "page", "pagina",
}

var incomePhrases = []string{
	"salary", "payroll", "deposit", "refund", "interest", "dividend", "transfer from", "received",
	"nomina", "sueldo", "ingreso", "abono", "devolucion", "intereses", "transferencia recibida",
}

var currencyCodes = []string{"eur", "usd", "gbp", "mxn", "ars", "cop", "clp"}

// pdfBase64Prefix is "%PDF-" in standard base64.
const pdfBase64Prefix = "JVBERi0"

func extractPDF(ctx context.Context, content string, matcher *categoryMatcher) ([]Candidate, error) {
	text, err := pdfText(ctx, content)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(text, "\n")

	var samples []string
	for _, line := range lines {
		for _, tok := range strings.Fields(line) {
			if moneyTokenRe.MatchString(tok) {
				samples = append(samples, tok)
			}
		}
	}
	hint := detectSeparatorHint(samples)
	dp := dateParser{order: inferDateOrder(strings.Fields(text), hint)}
	if m := yearRe.FindString(text); m != "" {
		dp.defaultYear = atoi(m)
	}

	out := make([]Candidate, 0)
	for i, line := range lines {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if c, ok := parseStatementLine(line, dp, hint, matcher); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// pdfText returns the text layer of content, which is either text already
// pulled out of a PDF, a raw PDF file, or a base64-encoded PDF file.
func pdfText(ctx context.Context, content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "%PDF"):
		return readPDF(ctx, []byte(trimmed))
	case strings.HasPrefix(trimmed, pdfBase64Prefix):
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(trimmed), ""))
		if err != nil {
			return "", &Error{Format: FormatPDF, Reason: "invalid base64 payload", Err: err}
		}
		return readPDF(ctx, raw)
	}

	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return "", &Error{Format: FormatPDF, Reason: "content is neither PDF text nor a PDF file"}
	}
	return strings.ReplaceAll(content, "\r\n", "\n"), nil
}

// readPDF pulls the text layer out of a PDF file, one output line per text row.
func readPDF(ctx context.Context, data []byte) (text string, err error) {
	// The PDF reader panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &Error{Format: FormatPDF, Reason: "corrupt PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Format: FormatPDF, Reason: "unreadable PDF", Err: err}
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			plain, perr := page.GetPlainText(nil)
			if perr != nil {
				continue
			}
			b.WriteString(plain)
			b.WriteByte('\n')
			continue
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				if s := strings.TrimSpace(t.S); s != "" {
					parts = append(parts, s)
				}
			}
			b.WriteString(strings.Join(parts, " "))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// parseStatementLine recognises "date description amount [balance]" lines.
// The first money token is the amount; later ones are running balances.
func parseStatementLine(line string, dp dateParser, hint separatorHint, matcher *categoryMatcher) (Candidate, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return Candidate{}, false
	}

	used := make([]bool, len(tokens))
	date, ok := leadingDate(tokens, used, dp)
	if !ok {
		date, ok = embeddedDate(tokens, used, dp)
	}
	if !ok {
		return Candidate{}, false
	}

	var (
		amount   decimal.Decimal
		found    bool
		explicit models.TransactionType
	)
	for i, tok := range tokens {
		if used[i] || !moneyTokenRe.MatchString(tok) {
			continue
		}
		used[i] = true
		if found {
			continue
		}
		a, ok := parseAmount(tok, hint)
		if !ok || a.IsZero() {
			continue
		}
		amount, found = a, true
		switch {
		case strings.HasPrefix(tok, "+"):
			explicit = models.TransactionTypeIncome
		case strings.HasSuffix(tok, "-"):
			explicit = models.TransactionTypeExpense
		}
	}
	if !found {
		return Candidate{}, false
	}

	descParts := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if used[i] {
			continue
		}
		switch textnorm.Fold(tok) {
		case "cr":
			explicit = models.TransactionTypeIncome
			continue
		case "dr":
			explicit = models.TransactionTypeExpense
			continue
		}
		if isCurrencyToken(tok) {
			continue
		}
		descParts = append(descParts, tok)
	}
	desc := strings.TrimSpace(strings.Join(descParts, " "))
	folded := textnorm.Fold(desc)
	if folded == "" || textnorm.ContainsAny(folded, summaryPhrases...) {
		return Candidate{}, false
	}

	kind := explicit
	switch {
	case kind != "":
	case amount.IsNegative():
		kind = models.TransactionTypeExpense
	case textnorm.ContainsAny(folded, incomePhrases...):
		kind = models.TransactionTypeIncome
	default:
		kind = models.TransactionTypeExpense
	}

	return Candidate{
		Type:        kind,
		Amount:      amount.Abs(),
		Description: desc,
		Date:        date,
		Category:    matcher.guess(desc),
	}, true
}

// leadingDate tries the longest date phrase at the start of the line, e.g.
// "15 de enero de 2024" or "Jan 15, 2024".
func leadingDate(tokens []string, used []bool, dp dateParser) (string, bool) {
	for n := min(5, len(tokens)-1); n >= 1; n-- {
		phrase := strings.Join(tokens[:n], " ")
		if n > 1 && !hasWholeMonthName(tokens[:n]) {
			continue
		}
		if d, ok := parseStatementDate(phrase, dp); ok {
			for i := 0; i < n; i++ {
				used[i] = true
			}
			return d, true
		}
	}
	return "", false
}

// embeddedDate looks for a numeric date anywhere in the line.
func embeddedDate(tokens []string, used []bool, dp dateParser) (string, bool) {
	for i, tok := range tokens {
		if moneyTokenRe.MatchString(tok) {
			continue
		}
		if d, ok := parseStatementDate(tok, dp); ok {
			used[i] = true
			return d, true
		}
	}
	return "", false
}

func parseStatementDate(s string, dp dateParser) (string, bool) {
	s = strings.TrimRight(s, ",:")
	if m := shortNumericDate.FindStringSubmatch(s); m != nil {
		return dp.parse(s + "/" + strconv.Itoa(dp.yearOr("")))
	}
	return dp.parse(s)
}

// hasWholeMonthName guards multi-token dates against merchant names that
// merely start like a month ("Mayoral", "Marks").
func hasWholeMonthName(tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := monthNames[textnorm.Fold(tok)]; ok {
			return true
		}
	}
	return false
}

func isCurrencyToken(tok string) bool {
	switch tok {
	case "$", "€", "£":
		return true
	}
	return slices.Contains(currencyCodes, textnorm.Fold(tok))
}
