package extraction

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// separatorHint says how to read a lone separator followed by exactly three
// digits, e.g. "1.234" or "1,234", which is ambiguous on its own.
type separatorHint int

const (
	hintUnknown separatorHint = iota
	hintDecimalPoint
	hintDecimalComma
)

// parseAmount parses a locale-variant money string. The result is signed:
// leading or trailing minus and accounting parentheses make it negative.
func parseAmount(raw string, hint separatorHint) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
		case r == '.' || r == ',':
			b.WriteRune(r)
		case r == '-' || r == '−':
			negative = true
		case r == '+', r == '\'', unicode.IsSpace(r):
			// signs and thousands spacing
		case unicode.IsLetter(r) || unicode.Is(unicode.Sc, r):
			// currency codes and symbols
		default:
			return decimal.Zero, false
		}
	}
	if digits == 0 {
		return decimal.Zero, false
	}

	normalized, ok := normalizeSeparators(b.String(), hint)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites s to use '.' as the only decimal separator and
// drops thousands separators.
func normalizeSeparators(s string, hint separatorHint) (string, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ",", hint == hintDecimalComma)
	case lastDot >= 0:
		s = resolveSingleSeparator(s, ".", hint != hintDecimalComma)
	}

	if strings.Count(s, ".") > 1 || strings.Contains(s, ",") {
		return "", false
	}
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return s, s != ""
}

// resolveSingleSeparator decides whether sep is a decimal or thousands
// separator when it is the only separator kind present.
func resolveSingleSeparator(s, sep string, preferDecimal bool) string {
	count := strings.Count(s, sep)
	tail := len(s) - strings.LastIndex(s, sep) - 1

	isDecimal := count == 1 && (tail != 3 || preferDecimal)
	if isDecimal {
		return strings.Replace(s, sep, ".", 1)
	}
	return strings.ReplaceAll(s, sep, "")
}

// detectSeparatorHint votes over sample amounts whose decimal separator is
// unambiguous (one or two digits after the last separator).
func detectSeparatorHint(samples []string) separatorHint {
	var point, comma int
	for _, raw := range samples {
		s := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) || r == '.' || r == ',' {
				return r
			}
			return -1
		}, raw)
		i := strings.LastIndexAny(s, ".,")
		if i < 0 {
			continue
		}
		tail := len(s) - i - 1
		if tail != 1 && tail != 2 {
			continue
		}
		if s[i] == ',' {
			comma++
		} else {
			point++
		}
	}
	switch {
	case comma > point:
		return hintDecimalComma
	case point > 0:
		return hintDecimalPoint
	}
	return hintUnknown
}

// looksLikeAmount rejects cells that merely contain digits, such as
// references or merchant names with store numbers.
func looksLikeAmount(s string) bool {
	letters := 0
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return digits > 0 && letters <= 3
}
