package agent

import (
	"fmt"

	"careerpilot-backend/internal/llm"
)

// Category classifies an operation failure.
type Category string

const (
	CategoryValidation Category = "validation_error"
	CategoryParsing    Category = "parsing_error"
	CategoryNetwork    Category = "network_error"
	CategoryTimeout    Category = "timeout"
	CategoryNotFound   Category = "not_found"
	CategoryForbidden  Category = "forbidden"
	CategoryInternal   Category = "internal_error"
)

// Error is the failure side of an Outcome.
type Error struct {
	Code      string
	Message   string
	Category  Category
	Retryable bool
	Details   map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Category, e.Message)
}

// Outcome is the uniform result of every agent-backed operation. Callers must
// branch on OK; Data is only meaningful when OK is true.
type Outcome[T any] struct {
	OK      bool
	Data    T
	Usage   llm.Usage
	Model   string
	Err     *Error
	Retries int
}

// Ok builds a success outcome.
func Ok[T any](data T, usage llm.Usage, model string) Outcome[T] {
	return Outcome[T]{OK: true, Data: data, Usage: usage, Model: model}
}

// Fail builds a failure outcome.
func Fail[T any](err *Error) Outcome[T] {
	return Outcome[T]{OK: false, Err: err}
}

// ValidationError builds a non-retryable precondition failure.
func ValidationError(code, message string) *Error {
	return &Error{Code: code, Message: message, Category: CategoryValidation}
}

// NotFoundError builds a non-retryable existence failure.
func NotFoundError(code, message string) *Error {
	return &Error{Code: code, Message: message, Category: CategoryNotFound}
}

// ForbiddenError builds a non-retryable ownership failure.
func ForbiddenError(code, message string) *Error {
	return &Error{Code: code, Message: message, Category: CategoryForbidden}
}

// InternalError builds a non-retryable unexpected failure.
func InternalError(code, message string) *Error {
	return &Error{Code: code, Message: message, Category: CategoryInternal}
}
