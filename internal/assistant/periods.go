package assistant

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

type periodKind int

const (
	kindDay periodKind = iota
	kindWeek
	kindMonth
	kindYear
	kindSpan
)

// Period is an inclusive range of calendar dates. Dates are midnight UTC,
// the same representation transactions are stored with.
type Period struct {
	From time.Time
	To   time.Time
	kind periodKind
}

// periodData is the JSON form of a Period inside answer payloads.
type periodData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

const dateLayout = "2006-01-02"

func (p Period) data(lang language) periodData {
	return periodData{From: p.From.Format(dateLayout), To: p.To.Format(dateLayout), Label: p.label(lang)}
}

func (p Period) label(lang language) string {
	switch p.kind {
	case kindDay:
		return p.From.Format(dateLayout)
	case kindMonth:
		if lang == spanish {
			return fmt.Sprintf("%s de %d", spanishMonths[p.From.Month()-1], p.From.Year())
		}
		return p.From.Format("January 2006")
	case kindYear:
		return strconv.Itoa(p.From.Year())
	}
	if lang == spanish {
		return fmt.Sprintf("del %s al %s", p.From.Format(dateLayout), p.To.Format(dateLayout))
	}
	return fmt.Sprintf("%s to %s", p.From.Format(dateLayout), p.To.Format(dateLayout))
}

// phrase is the label with the preposition that introduces it in a sentence.
func (p Period) phrase(lang language) string {
	switch {
	case p.kind == kindDay && lang == spanish:
		return "el " + p.label(lang)
	case p.kind == kindDay:
		return "on " + p.label(lang)
	case (p.kind == kindWeek || p.kind == kindSpan) && lang == spanish:
		return p.label(lang)
	case p.kind == kindWeek || p.kind == kindSpan:
		return "from " + p.label(lang)
	case lang == spanish:
		return "en " + p.label(lang)
	}
	return "in " + p.label(lang)
}

// previous returns the period of the same shape immediately before p.
func (p Period) previous() Period {
	switch p.kind {
	case kindDay:
		return dayPeriod(p.From.AddDate(0, 0, -1))
	case kindWeek:
		return Period{From: p.From.AddDate(0, 0, -7), To: p.To.AddDate(0, 0, -7), kind: kindWeek}
	case kindMonth:
		return monthPeriod(p.From.Year(), p.From.Month()-1)
	case kindYear:
		return yearPeriod(p.From.Year() - 1)
	}
	days := int(p.To.Sub(p.From).Hours()/24) + 1
	return Period{From: p.From.AddDate(0, 0, -days), To: p.From.AddDate(0, 0, -1), kind: kindSpan}
}

func dayPeriod(d time.Time) Period {
	return Period{From: d, To: d, kind: kindDay}
}

func weekPeriod(d time.Time) Period {
	offset := (int(d.Weekday()) + 6) % 7 // Monday starts the week
	start := d.AddDate(0, 0, -offset)
	return Period{From: start, To: start.AddDate(0, 0, 6), kind: kindWeek}
}

func monthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: start, To: start.AddDate(0, 1, -1), kind: kindMonth}
}

func yearPeriod(year int) Period {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: start, To: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), kind: kindYear}
}

// civilToday is the user's local calendar date as midnight UTC.
func civilToday(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var spanishMonths = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var questionMonths = map[string]time.Month{
	"january": time.January, "enero": time.January,
	"february": time.February, "febrero": time.February,
	"march": time.March, "marzo": time.March,
	"april": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"june": time.June, "junio": time.June,
	"july": time.July, "julio": time.July,
	"august": time.August, "agosto": time.August,
	"september": time.September, "septiembre": time.September, "setiembre": time.September,
	"october": time.October, "octubre": time.October,
	"november": time.November, "noviembre": time.November,
	"december": time.December, "diciembre": time.December,
}

// periodRule recognises one family of time expressions in folded text.
type periodRule struct {
	re      *regexp.Regexp
	resolve func(m []string, today time.Time) (Period, bool)
}

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre`

var periodRules = []periodRule{
	{regexp.MustCompile(`\b(?:today|hoy)\b`), func(_ []string, t time.Time) (Period, bool) {
		return dayPeriod(t), true
	}},
	{regexp.MustCompile(`\b(?:yesterday|ayer)\b`), func(_ []string, t time.Time) (Period, bool) {
		return dayPeriod(t.AddDate(0, 0, -1)), true
	}},
	{regexp.MustCompile(`\b(?:this week|current week|esta semana)\b`), func(_ []string, t time.Time) (Period, bool) {
		return weekPeriod(t), true
	}},
	{regexp.MustCompile(`\b(?:last week|previous week|(?:la )?semana pasada|(?:la )?semana anterior)\b`), func(_ []string, t time.Time) (Period, bool) {
		return weekPeriod(t.AddDate(0, 0, -7)), true
	}},
	{regexp.MustCompile(`\b(?:this month|current month|este mes|(?:el )?mes actual)\b`), func(_ []string, t time.Time) (Period, bool) {
		return monthPeriod(t.Year(), t.Month()), true
	}},
	{regexp.MustCompile(`\b(?:last month|previous month|(?:el )?mes pasado|(?:el )?mes anterior)\b`), func(_ []string, t time.Time) (Period, bool) {
		return monthPeriod(t.Year(), t.Month()-1), true
	}},
	{regexp.MustCompile(`\b(?:this year|current year|este ano|(?:el )?ano actual)\b`), func(_ []string, t time.Time) (Period, bool) {
		return yearPeriod(t.Year()), true
	}},
	{regexp.MustCompile(`\b(?:last year|previous year|(?:el )?ano pasado|(?:el )?ano anterior)\b`), func(_ []string, t time.Time) (Period, bool) {
		return yearPeriod(t.Year() - 1), true
	}},
	{regexp.MustCompile(`\b(?:(?:last|past) (\d{1,3}) days|(?:los )?ultimos (\d{1,3}) dias)\b`), func(m []string, t time.Time) (Period, bool) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 366 {
			return Period{}, false
		}
		return Period{From: t.AddDate(0, 0, -(n - 1)), To: t, kind: kindSpan}, true
	}},
	{regexp.MustCompile(`\b(\d{4}) (\d{2}) (\d{2})\b`), func(m []string, _ time.Time) (Period, bool) {
		d, err := time.Parse(dateLayout, m[1]+"-"+m[2]+"-"+m[3])
		if err != nil {
			return Period{}, false
		}
		return dayPeriod(d), true
	}},
	{regexp.MustCompile(`\b(\d{4}) (\d{2})\b`), func(m []string, _ time.Time) (Period, bool) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Period{}, false
		}
		return monthPeriod(year, time.Month(month)), true
	}},
	{regexp.MustCompile(`\b(?:(in|en|for|during|durante|since|de) )?(` + monthAlternation + `)(?: (?:de |del |of )?(\d{4}))?\b`), resolveMonthName},
	{regexp.MustCompile(`\b(?:in|en|for|during|durante|del ano|year) (\d{4})\b`), func(m []string, _ time.Time) (Period, bool) {
		year, _ := strconv.Atoi(m[1])
		return yearPeriod(year), true
	}},
}

func resolveMonthName(m []string, today time.Time) (Period, bool) {
	prep, name, yearRaw := m[1], m[2], m[3]
	// "may" is usually the verb unless anchored by a preposition or a year.
	if name == "may" && prep == "" && yearRaw == "" {
		return Period{}, false
	}
	month := questionMonths[name]
	year := today.Year()
	if yearRaw != "" {
		year, _ = strconv.Atoi(yearRaw)
	} else if month > today.Month() {
		year--
	}
	return monthPeriod(year, month), true
}

type periodMatch struct {
	period     Period
	start, end int
}

// findPeriods returns every time expression in folded text, in order of
// appearance. Overlapping matches keep the earliest and longest.
func findPeriods(folded string, today time.Time) []Period {
	var matches []periodMatch
	for _, rule := range periodRules {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(folded, -1) {
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = folded[loc[2*g]:loc[2*g+1]]
				}
			}
			if p, ok := rule.resolve(groups, today); ok {
				matches = append(matches, periodMatch{period: p, start: loc[0], end: loc[1]})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	var out []Period
	end := -1
	for _, m := range matches {
		if m.start < end {
			continue
		}
		out = append(out, m.period)
		end = m.end
	}
	return out
}
