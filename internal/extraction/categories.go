package extraction

import (
	"slices"

	"pennywise/internal/textnorm"
)

// keywordGroup links common merchant keywords to the category names a user
// is likely to have created for them.
type keywordGroup struct {
	aliases  []string
	keywords []string
}

var keywordGroups = []keywordGroup{
	{
		aliases:  []string{"groceries", "grocery", "food", "comida", "alimentacion", "supermercado", "mercado"},
		keywords: []string{"supermarket", "grocery", "tesco", "sainsbury", "mercadona", "carrefour", "lidl", "aldi", "walmart", "whole foods", "dia", "eroski", "alcampo", "costco"},
	},
	{
		aliases:  []string{"restaurants", "dining", "eating out", "restaurantes", "restaurante", "ocio y restaurantes"},
		keywords: []string{"restaurant", "restaurante", "cafe", "coffee", "starbucks", "mcdonald", "mcdonalds", "burger", "pizza", "bar", "deliveroo", "glovo", "just eat", "uber eats"},
	},
	{
		aliases:  []string{"transport", "transportation", "travel", "transporte", "viajes", "coche", "car"},
		keywords: []string{"uber", "cabify", "taxi", "metro", "renfe", "bus", "shell", "repsol", "bp", "cepsa", "fuel", "gasolina", "parking", "aparcamiento", "train", "airline", "ryanair", "iberia"},
	},
	{
		aliases:  []string{"utilities", "bills", "servicios", "suministros", "facturas"},
		keywords: []string{"electric", "electricity", "water", "agua", "luz", "iberdrola", "endesa", "naturgy", "internet", "vodafone", "movistar", "orange", "telefonica", "phone"},
	},
	{
		aliases:  []string{"entertainment", "subscriptions", "entretenimiento", "ocio", "suscripciones"},
		keywords: []string{"netflix", "spotify", "hbo", "disney", "prime video", "cinema", "cine", "steam", "playstation", "xbox", "concert"},
	},
	{
		aliases:  []string{"health", "healthcare", "salud", "farmacia", "medical"},
		keywords: []string{"pharmacy", "farmacia", "doctor", "clinic", "clinica", "hospital", "dentist", "dentista"},
	},
	{
		aliases:  []string{"rent", "housing", "home", "alquiler", "vivienda", "hogar", "hipoteca", "mortgage"},
		keywords: []string{"rent", "alquiler", "mortgage", "hipoteca", "landlord", "ikea", "leroy merlin"},
	},
	{
		aliases:  []string{"salary", "income", "wages", "salario", "nomina", "sueldo", "ingresos"},
		keywords: []string{"salary", "payroll", "nomina", "sueldo", "wages"},
	},
	{
		aliases:  []string{"shopping", "compras", "ropa", "clothing"},
		keywords: []string{"amazon", "zara", "h m", "primark", "el corte ingles", "decathlon", "mango"},
	},
}

// categoryMatcher guesses a category name for a line of text. Guesses are
// limited to the supplied vocabulary and are only ever advisory.
type categoryMatcher struct {
	names    []string
	folded   []string
	keywords [][]string
}

func newCategoryMatcher(names []string) *categoryMatcher {
	m := &categoryMatcher{}
	for _, name := range names {
		f := textnorm.Fold(name)
		if f == "" {
			continue
		}
		var kws []string
		for _, g := range keywordGroups {
			if slices.Contains(g.aliases, f) {
				kws = append(kws, g.keywords...)
			}
		}
		m.names = append(m.names, name)
		m.folded = append(m.folded, f)
		m.keywords = append(m.keywords, kws)
	}
	return m
}

// guess returns the first known category whose name, or one of its
// merchant keywords, appears in text. Empty when nothing matches.
func (m *categoryMatcher) guess(text string) string {
	if m == nil || len(m.names) == 0 {
		return ""
	}
	f := textnorm.Fold(text)
	for i, name := range m.folded {
		if textnorm.ContainsPhrase(f, name) {
			return m.names[i]
		}
	}
	for i, kws := range m.keywords {
		if textnorm.ContainsAny(f, kws...) {
			return m.names[i]
		}
	}
	return ""
}

// known returns the vocabulary spelling of a free-text category, if any.
func (m *categoryMatcher) known(raw string) (string, bool) {
	if m == nil {
		return "", false
	}
	f := textnorm.Fold(raw)
	for i, name := range m.folded {
		if name == f {
			return m.names[i], true
		}
	}
	return "", false
}
