package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error without cause",
			err: &Error{
				Code:    CodeTableNotFound,
				Message: "table ghost not found",
			},
			expected: "TABLE_NOT_FOUND: table ghost not found",
		},
		{
			name: "error with cause",
			err: &Error{
				Code:    CodeSyntaxError,
				Message: "SQL syntax error",
				Cause:   fmt.Errorf(`near "SELEC": syntax error`),
			},
			expected: `SYNTAX_ERROR: SQL syntax error (caused by: near "SELEC": syntax error)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := &Error{
		Code:    CodeQueryFailed,
		Message: "query failed",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &Error{Code: CodeQueryFailed}))
}

func TestError_Is(t *testing.T) {
	err1 := &Error{Code: CodeTableNotFound, Message: "not found"}
	err2 := &Error{Code: CodeTableNotFound, Message: "different message"}
	err3 := &Error{Code: CodeInvalidRequest, Message: "invalid"}
	stdErr := fmt.Errorf("standard error")

	assert.True(t, err1.Is(err2), "errors with same code should match")
	assert.False(t, err1.Is(err3), "errors with different codes should not match")
	assert.False(t, err1.Is(stdErr), "explorer error should not match standard error")
	assert.True(t, errors.Is(fmt.Errorf("outer: %w", err1), ErrTableNotFound))
}

func TestError_WithDetail(t *testing.T) {
	err := ErrTableNotFound.WithDetail("table", "ghost").WithDetail("attempt", 1)

	assert.Equal(t, "ghost", err.Details["table"])
	assert.Equal(t, 1, err.Details["attempt"])
	assert.Nil(t, ErrTableNotFound.Details, "sentinel must not be mutated")
}

func TestNew(t *testing.T) {
	err := New(CodeInvalidRequest, "test message")
	assert.Equal(t, CodeInvalidRequest, err.Code)
	assert.Equal(t, "test message", err.Message)
	assert.Nil(t, err.Cause)

	errf := Newf(CodeTableNotFound, "table %q not found", "ghost")
	assert.Equal(t, `table "ghost" not found`, errf.Message)
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, CodeConnectionFailed, "wrapped message")

	assert.Equal(t, CodeConnectionFailed, err.Code)
	assert.Equal(t, "wrapped message", err.Message)
	assert.Equal(t, cause, err.Cause)

	assert.Nil(t, Wrap(nil, CodeConnectionFailed, "message"))
}

func TestWrapf(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrapf(cause, CodeQueryFailed, "wrapped message %d", 42)

	assert.Equal(t, CodeQueryFailed, err.Code)
	assert.Equal(t, "wrapped message 42", err.Message)
	assert.Equal(t, cause, err.Cause)

	assert.Nil(t, Wrapf(nil, CodeQueryFailed, "message %d", 42))
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notFound    bool
		connection  bool
		unsupported bool
		invalid     bool
	}{
		{name: "table not found", err: ErrTableNotFound, notFound: true},
		{name: "connection", err: ErrConnectionFailed, connection: true},
		{name: "unsupported", err: ErrUnsupportedStatement, unsupported: true},
		{name: "invalid request", err: ErrInvalidRequest, invalid: true},
		{name: "wrapped not found", err: fmt.Errorf("ctx: %w", ErrTableNotFound), notFound: true},
		{name: "standard error", err: fmt.Errorf("standard error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.connection, IsConnection(tt.err))
			assert.Equal(t, tt.unsupported, IsUnsupported(tt.err))
			assert.Equal(t, tt.invalid, IsInvalidRequest(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := Wrap(fmt.Errorf("context deadline exceeded"), CodeDeadlineExceeded, "query timed out")
	outer := Wrap(inner, CodeQueryFailed, "failed to commit update")

	assert.True(t, HasCode(outer, CodeQueryFailed))
	assert.True(t, HasCode(outer, CodeDeadlineExceeded))
	assert.True(t, HasCode(fmt.Errorf("read: %w", outer), CodeDeadlineExceeded))
	assert.False(t, HasCode(outer, CodeTableNotFound))
	assert.False(t, HasCode(nil, CodeQueryFailed))
	assert.False(t, HasCode(fmt.Errorf("plain"), CodeQueryFailed))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeTableNotFound, GetCode(ErrTableNotFound))
	assert.Equal(t, CodeSyntaxError, GetCode(fmt.Errorf("outer: %w", ErrSyntax)))
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("standard error")))
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "table not found", GetMessage(ErrTableNotFound))
	assert.Equal(t, "standard error", GetMessage(fmt.Errorf("standard error")))
}

func TestGetDetails(t *testing.T) {
	assert.Nil(t, GetDetails(ErrTableNotFound))
	assert.Nil(t, GetDetails(fmt.Errorf("standard error")))

	err := Wrap(fmt.Errorf("no such column: nope"), CodeQueryFailed, "query failed").WithDetail("sql", "SELECT nope FROM t")
	details := GetDetails(err)
	assert.Equal(t, "no such column: nope", details["cause"])
	assert.Equal(t, "SELECT nope FROM t", details["sql"])
}

func TestCommonErrors(t *testing.T) {
	assert.Equal(t, CodeConnectionFailed, ErrConnectionFailed.Code)
	assert.Equal(t, CodeTableNotFound, ErrTableNotFound.Code)
	assert.Equal(t, CodeUnsupportedStatement, ErrUnsupportedStatement.Code)
	assert.Equal(t, CodeSyntaxError, ErrSyntax.Code)
	assert.Equal(t, CodeQueryFailed, ErrQueryFailed.Code)
	assert.Equal(t, CodeInvalidRequest, ErrInvalidRequest.Code)
	assert.Equal(t, CodeDeadlineExceeded, ErrDeadlineExceeded.Code)
}
