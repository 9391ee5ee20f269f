// Package imports validates user-confirmed transaction batches and commits
// them atomically to a budget.
package imports

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pwvalidator "pennywise/internal/validator"
)

// MaxBatchSize is the largest number of rows accepted in one commit.
const MaxBatchSize = 500

// BatchIndex marks an issue that applies to the whole batch.
const BatchIndex = -1

var (
	minAmount = decimal.New(1, -2)
	// Amounts are stored as int64 cents.
	maxAmount = decimal.New(1, 13)
)

// Row is a user-confirmed transaction ready for commit.
type Row struct {
	Type        string          `json:"type" validate:"required,transaction_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Date        string          `json:"date" validate:"required,calendar_date"`
	CategoryID  *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

// Issue is one reason a batch was rejected.
type Issue struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	if i.Index == BatchIndex {
		return fmt.Sprintf("batch: %s %s", i.Field, i.Reason)
	}
	return fmt.Sprintf("row %d: %s %s", i.Index, i.Field, i.Reason)
}

var rowValidator = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	pwvalidator.RegisterTo(v)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the whole batch and returns every issue found. A nil
// result means the batch may be committed.
func Validate(rows []Row) []Issue {
	switch {
	case len(rows) == 0:
		return []Issue{{Index: BatchIndex, Field: "transactions", Reason: "must contain at least 1 transaction"}}
	case len(rows) > MaxBatchSize:
		return []Issue{{Index: BatchIndex, Field: "transactions", Reason: fmt.Sprintf("must contain at most %d transactions", MaxBatchSize)}}
	}

	var issues []Issue
	for i := range rows {
		issues = append(issues, validateRow(i, rows[i])...)
	}
	return issues
}

func validateRow(index int, row Row) []Issue {
	var issues []Issue

	if err := rowValidator.Struct(row); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				issues = append(issues, Issue{Index: index, Field: fe.Field(), Reason: reasonFor(fe)})
			}
		} else {
			issues = append(issues, Issue{Index: index, Field: "row", Reason: err.Error()})
		}
	}

	switch {
	case !row.Amount.IsPositive():
		issues = append(issues, Issue{Index: index, Field: "amount", Reason: "must be greater than 0"})
	case row.Amount.LessThan(minAmount):
		issues = append(issues, Issue{Index: index, Field: "amount", Reason: "must be at least 0.01"})
	case row.Amount.GreaterThanOrEqual(maxAmount):
		issues = append(issues, Issue{Index: index, Field: "amount", Reason: "is too large"})
	case !row.Amount.Equal(row.Amount.Truncate(2)):
		// Amounts are stored in cents.
		issues = append(issues, Issue{Index: index, Field: "amount", Reason: "must have at most 2 decimal places"})
	}
	return issues
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "transaction_type":
		return "must be income or expense"
	case "calendar_date":
		return "must be a YYYY-MM-DD calendar date"
	case "gt":
		return "must be a positive integer"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
