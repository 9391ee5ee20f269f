// Package pagination bounds list queries to a window of an ordered result.
package pagination

import "gorm.io/gorm"

const (
	// DefaultLimit applies when a window does not set one.
	DefaultLimit = 20
	// MaxLimit caps every window so one query cannot load a whole budget.
	MaxLimit = 500
)

// Window selects Limit rows starting at Offset.
type Window struct {
	Offset int
	Limit  int
}

// First returns the window holding the first n rows.
func First(n int) Window {
	return Window{Limit: n}
}

// Normalize clamps the window into the allowed range.
func (w Window) Normalize() Window {
	if w.Offset < 0 {
		w.Offset = 0
	}
	switch {
	case w.Limit <= 0:
		w.Limit = DefaultLimit
	case w.Limit > MaxLimit:
		w.Limit = MaxLimit
	}
	return w
}

// Page is one window of a result set together with the size of the whole set.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// NewPage builds a Page. Items is never nil.
func NewPage[T any](items []T, w Window, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Offset: w.Offset, Total: total}
}

// Truncated reports whether rows exist past the end of this page.
func (p Page[T]) Truncated() bool {
	return int64(p.Offset+len(p.Items)) < p.Total
}

// Scope returns a GORM scope applying OFFSET and LIMIT for w.
func Scope(w Window) func(db *gorm.DB) *gorm.DB {
	w = w.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(w.Offset).Limit(w.Limit)
	}
}
