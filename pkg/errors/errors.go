// Package errors provides standardized error types for the SQLite explorer.
package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced to tool callers.
const (
	CodeConnectionFailed     = "CONNECTION_FAILED"
	CodeTableNotFound        = "TABLE_NOT_FOUND"
	CodeUnsupportedStatement = "UNSUPPORTED_STATEMENT"
	CodeSyntaxError          = "SYNTAX_ERROR"
	CodeQueryFailed          = "QUERY_FAILED"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeDeadlineExceeded     = "DEADLINE_EXCEEDED"
	CodeInternal             = "INTERNAL_ERROR"
)

// Error represents an explorer error with code, message, and optional details.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with a single detail added.
// The receiver is left untouched so package-level sentinels stay immutable.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Common errors
var (
	ErrConnectionFailed     = &Error{Code: CodeConnectionFailed, Message: "database connection failed"}
	ErrTableNotFound        = &Error{Code: CodeTableNotFound, Message: "table not found"}
	ErrUnsupportedStatement = &Error{Code: CodeUnsupportedStatement, Message: "unsupported statement"}
	ErrSyntax               = &Error{Code: CodeSyntaxError, Message: "SQL syntax error"}
	ErrQueryFailed          = &Error{Code: CodeQueryFailed, Message: "query execution failed"}
	ErrInvalidRequest       = &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrDeadlineExceeded     = &Error{Code: CodeDeadlineExceeded, Message: "operation timed out"}
)

// New creates a new Error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with an Error.
func Wrap(err error, code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// HasCode reports whether err carries the given code anywhere in its chain,
// including coded errors wrapped as the cause of another coded error.
func HasCode(err error, code string) bool {
	return errors.Is(err, &Error{Code: code})
}

// IsNotFound checks if an error is a table not found error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeTableNotFound)
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	return HasCode(err, CodeConnectionFailed)
}

// IsUnsupported checks if an error is an unsupported statement error.
func IsUnsupported(err error) bool {
	return HasCode(err, CodeUnsupportedStatement)
}

// IsInvalidRequest checks if an error is an invalid request error.
func IsInvalidRequest(err error) bool {
	return HasCode(err, CodeInvalidRequest)
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// GetDetails extracts error details, including the root cause message, for
// diagnostics.
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	if e.Cause == nil && len(e.Details) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	if e.Cause != nil {
		details["cause"] = e.Cause.Error()
	}
	return details
}
