package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"pennywise/internal/textnorm"
	"pennywise/internal/validator"
)

// dateOrder resolves numeric dates like 03/04/2024.
type dateOrder int

const (
	orderUnknown dateOrder = iota
	orderDayFirst
	orderMonthFirst
)

var (
	isoDateRe     = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})$`)
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	dayMonthRe    = regexp.MustCompile(`^(\d{1,2}) (?:de )?([a-z]+)(?: (?:de )?(\d{2}|\d{4}))?$`)
	monthDayRe    = regexp.MustCompile(`^([a-z]+) (\d{1,2})(?: (\d{2}|\d{4}))?$`)
)

// monthNames maps folded English and Spanish month names and abbreviations.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January, "ene": time.January, "enero": time.January,
	"feb": time.February, "february": time.February, "febrero": time.February,
	"mar": time.March, "march": time.March, "marzo": time.March,
	"apr": time.April, "april": time.April, "abr": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"jun": time.June, "june": time.June, "junio": time.June,
	"jul": time.July, "july": time.July, "julio": time.July,
	"aug": time.August, "august": time.August, "ago": time.August, "agosto": time.August,
	"sep": time.September, "sept": time.September, "september": time.September, "septiembre": time.September, "set": time.September,
	"oct": time.October, "october": time.October, "octubre": time.October,
	"nov": time.November, "november": time.November, "noviembre": time.November,
	"dec": time.December, "december": time.December, "dic": time.December, "diciembre": time.December,
}

// dateParser normalizes dates found in one document. Order and defaultYear
// are inferred once per document so rows are read consistently.
type dateParser struct {
	order       dateOrder
	defaultYear int
}

// parse returns the canonical YYYY-MM-DD form of raw.
func (p dateParser) parse(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	// Drop a trailing time component: "2024-01-05 13:45" or "2024-01-05T13:45:00Z".
	if i := strings.IndexAny(s, "T "); i == 10 && isoDateRe.MatchString(s[:10]) {
		s = s[:10]
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return canonical(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := compactDateRe.FindStringSubmatch(s); m != nil {
		return canonical(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), expandYear(m[3])
		day, month := a, b
		switch {
		case a > 12:
			// unambiguous day-first
		case b > 12:
			day, month = b, a
		case p.order == orderMonthFirst:
			day, month = b, a
		}
		return canonical(y, month, day)
	}

	folded := textnorm.Fold(s)
	if m := dayMonthRe.FindStringSubmatch(folded); m != nil {
		if month, ok := lookupMonth(m[2]); ok {
			return canonical(p.yearOr(m[3]), int(month), atoi(m[1]))
		}
	}
	if m := monthDayRe.FindStringSubmatch(folded); m != nil {
		if month, ok := lookupMonth(m[1]); ok {
			return canonical(p.yearOr(m[3]), int(month), atoi(m[2]))
		}
	}
	return "", false
}

func (p dateParser) yearOr(raw string) int {
	if raw != "" {
		return expandYear(raw)
	}
	if p.defaultYear != 0 {
		return p.defaultYear
	}
	return time.Now().Year()
}

// inferDateOrder votes over numeric dates: a first component above 12 proves
// day-first, a second component above 12 proves month-first. Without proof,
// a decimal comma suggests a day-first locale.
func inferDateOrder(samples []string, hint separatorHint) dateOrder {
	var dayFirst, monthFirst int
	for _, raw := range samples {
		m := numericDateRe.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		a, b := atoi(m[1]), atoi(m[2])
		switch {
		case a > 12 && b <= 12:
			dayFirst++
		case b > 12 && a <= 12:
			monthFirst++
		}
	}
	switch {
	case dayFirst > monthFirst:
		return orderDayFirst
	case monthFirst > dayFirst:
		return orderMonthFirst
	case hint == hintDecimalPoint:
		return orderMonthFirst
	}
	return orderDayFirst
}

func lookupMonth(word string) (time.Month, bool) {
	word = strings.TrimSuffix(word, ".")
	if m, ok := monthNames[word]; ok {
		return m, true
	}
	if len(word) > 3 {
		m, ok := monthNames[word[:3]]
		return m, ok
	}
	return 0, false
}

func canonical(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return "", false
	}
	s := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(validator.CalendarDateLayout)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject instead.
	want := strconv.Itoa(year) + "-" + pad2(month) + "-" + pad2(day)
	if s != want || !validator.IsCalendarDate(s) {
		return "", false
	}
	return s, true
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
