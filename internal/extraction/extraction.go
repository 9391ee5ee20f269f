// Package extraction turns raw CSV and PDF statement content into candidate
// transactions for the user to review before import.
//
// Extraction is a pure transform: it holds no shared state, never touches
// storage and is safe to run concurrently. Category guesses on candidates are
// advisory free text and are never resolved to category ids here.
package extraction

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"pennywise/internal/models"
)

// MaxContentLength is the largest accepted document, in characters.
const MaxContentLength = 3_000_000

// Format is the declared format of a raw document.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Document is an uploaded source document.
type Document struct {
	Content  string
	Format   Format
	BudgetID uint
}

// Candidate is one inferred, unvalidated transaction.
type Candidate struct {
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description,omitempty"`
	Date        string                 `json:"date"`
	Category    string                 `json:"category,omitempty"`
}

// Options tune a single extraction.
type Options struct {
	// Categories are the names of the budget's categories, used as the
	// vocabulary for advisory category guesses.
	Categories []string
}

// Error reports a document that cannot be parsed as its declared format at
// all. A document that parses but yields no candidates is not an error.
type Error struct {
	Format Format
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Format, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// InputError reports content or format outside the accepted limits.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// Extract parses doc into candidates. The returned slice is never nil.
func Extract(ctx context.Context, doc Document, opts Options) ([]Candidate, error) {
	n := utf8.RuneCountInString(doc.Content)
	if n == 0 {
		return nil, &InputError{Reason: "content must not be empty"}
	}
	if n > MaxContentLength {
		return nil, &InputError{Reason: fmt.Sprintf("content exceeds %d characters", MaxContentLength)}
	}

	matcher := newCategoryMatcher(opts.Categories)

	var (
		out []Candidate
		err error
	)
	switch doc.Format {
	case FormatCSV:
		out, err = extractCSV(ctx, doc.Content, matcher)
	case FormatPDF:
		out, err = extractPDF(ctx, doc.Content, matcher)
	default:
		return nil, &InputError{Reason: fmt.Sprintf("unsupported format %q", doc.Format)}
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Candidate{}
	}
	return out, nil
}

// checkEvery is how many rows or lines are processed between cancellation checks.
const checkEvery = 256
