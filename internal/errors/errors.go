// Package errors provides custom error types for the Pennywise API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional client-facing details
// and an optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// copies made by Wrap or WithMessage still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Body is the client-facing part of an AppError.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Response is the JSON error envelope every endpoint returns.
type Response struct {
	Error Body `json:"error"`
}

// Response renders the envelope. Internal is never included.
func (e *AppError) Response() Response {
	return Response{Error: Body{Code: e.Code, Message: e.Message, Details: e.Details}}
}

// From returns err as an *AppError. Anything else becomes ErrInternalServer
// wrapping err, so callers can always render a safe response.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying structured details for the client.
func WithDetails(sentinel *AppError, message string, details any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Document extraction errors.
var (
	ErrExtractionFailed   = &AppError{Code: "EXTRACTION_FAILED", Message: "The document could not be read in the declared format", StatusCode: http.StatusUnprocessableEntity}
	ErrExtractionTimeout  = &AppError{Code: "EXTRACTION_TIMEOUT", Message: "The document took too long to process", StatusCode: http.StatusGatewayTimeout}
	ErrExtractionCapacity = &AppError{Code: "EXTRACTION_BUSY", Message: "Too many documents are being processed, try again shortly", StatusCode: http.StatusServiceUnavailable}
)

// Bulk import errors.
var (
	ErrValidationFailed = &AppError{Code: "VALIDATION_FAILED", Message: "One or more transactions are invalid", StatusCode: http.StatusBadRequest}
	ErrImportFailed     = &AppError{Code: "IMPORT_FAILED", Message: "The transactions could not be saved, nothing was imported", StatusCode: http.StatusInternalServerError}
	ErrImportInProgress = &AppError{Code: "IMPORT_IN_PROGRESS", Message: "Another import for this budget is in progress", StatusCode: http.StatusConflict}
)

// Assistant errors.
var (
	ErrAssistantUnavailable = &AppError{Code: "ASSISTANT_UNAVAILABLE", Message: "Sorry, I couldn't answer that right now. Please try again in a moment.", StatusCode: http.StatusBadGateway}
	ErrInvalidQuestion      = &AppError{Code: "INVALID_QUESTION", Message: "Question must be between 1 and 1000 characters", StatusCode: http.StatusBadRequest}
)
