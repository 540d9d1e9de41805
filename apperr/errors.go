// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeEmptyCart             Code = "EMPTY_CART"
	CodeInvalidLineItem       Code = "INVALID_LINE_ITEM"
	CodeFeaturedLimitExceeded Code = "FEATURED_LIMIT_EXCEEDED"
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeUnauthenticated       Code = "UNAUTHENTICATED"
	CodeAccessDenied          Code = "ACCESS_DENIED"
	CodeConflict              Code = "CONFLICT"
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	CodeInternal              Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeNotFound:              http.StatusNotFound,
	CodeInsufficientStock:     http.StatusBadRequest,
	CodeEmptyCart:             http.StatusBadRequest,
	CodeInvalidLineItem:       http.StatusBadRequest,
	CodeFeaturedLimitExceeded: http.StatusBadRequest,
	CodeValidation:            http.StatusBadRequest,
	CodeUnauthenticated:       http.StatusUnauthorized,
	CodeAccessDenied:          http.StatusForbidden,
	CodeConflict:              http.StatusConflict,
	CodeDependencyUnavailable: http.StatusServiceUnavailable,
	CodeInternal:              http.StatusInternalServerError,
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apperr.ErrEmptyCart).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInsufficientStock     = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrEmptyCart             = &Error{Code: CodeEmptyCart, Message: "Cart is empty"}
	ErrInvalidLineItem       = &Error{Code: CodeInvalidLineItem, Message: "Invalid product in cart"}
	ErrFeaturedLimitExceeded = &Error{Code: CodeFeaturedLimitExceeded, Message: "featured limit exceeded"}
	ErrValidation            = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnauthenticated       = &Error{Code: CodeUnauthenticated, Message: "Authentication required"}
	ErrAccessDenied          = &Error{Code: CodeAccessDenied, Message: "Access denied"}
	ErrConflict              = &Error{Code: CodeConflict, Message: "conflict"}
	ErrDependencyUnavailable = &Error{Code: CodeDependencyUnavailable, Message: "dependency unavailable"}
)

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

func InsufficientStock(productName string) *Error {
	if productName == "" {
		return New(CodeInsufficientStock, "Insufficient stock")
	}
	return Newf(CodeInsufficientStock, "Insufficient stock for %s", productName)
}

func Validation(fields ...FieldError) *Error {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Msg
	}
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

func Field(field, msg string) FieldError { return FieldError{Field: field, Msg: msg} }

func Unauthenticated(msg string) *Error { return New(CodeUnauthenticated, msg) }

func AccessDenied(msg string) *Error { return New(CodeAccessDenied, msg) }

func Conflict(msg string) *Error { return New(CodeConflict, msg) }

func Unavailable(err error) *Error {
	return &Error{Code: CodeDependencyUnavailable, Message: "Database unavailable", Err: err}
}

// Busy reports contention on a lock; the client may retry.
func Busy(err error) *Error {
	return &Error{Code: CodeConflict, Message: "Resource is busy, please try again", Err: err}
}

// Internal wraps an unexpected failure; the cause is logged, not shown.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// From extracts an *Error from err, wrapping anything else as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("Internal Server Error", err)
}
