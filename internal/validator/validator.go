// Package validator provides custom validation functions shared by Gin's
// binding engine and the bulk import row validator.
package validator

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CalendarDateLayout is the canonical representation of a transaction date.
const CalendarDateLayout = "2006-01-02"

var calendarDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterTo(v)
	}
}

// RegisterTo registers all custom validators on v.
func RegisterTo(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("document_format", validateDocumentFormat)
	_ = v.RegisterValidation("calendar_date", validateCalendarDate)
}

// IsCalendarDate reports whether s is a real calendar date written as YYYY-MM-DD.
func IsCalendarDate(s string) bool {
	if !calendarDateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(CalendarDateLayout, s)
	return err == nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateDocumentFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "csv", "pdf":
		return true
	}
	return false
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	return IsCalendarDate(fl.Field().String())
}
