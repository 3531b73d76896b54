package serrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to map it to a transport
// status or decide whether the enclosing unit of work must abort.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConsistency Code = "CONSISTENCY"
	CodeConflict    Code = "CONFLICT"
)

type Base struct {
	Code    Code
	Message string
	Hint    string
}

func (e *Base) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Hint)
}

func NewError(code Code, message, hint string) *Base {
	return &Base{Code: code, Message: message, Hint: hint}
}

func Validation(format string, args ...any) *Base {
	return &Base{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Base {
	return &Base{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Consistency marks an operation that expected to affect exactly one row but
// affected a different count. Always fatal to the current transaction.
func Consistency(format string, args ...any) *Base {
	return &Base{Code: CodeConsistency, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Base {
	return &Base{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func CodeOf(err error) (Code, bool) {
	var base *Base
	if errors.As(err, &base) {
		return base.Code, true
	}
	return "", false
}

func IsValidation(err error) bool  { return hasCode(err, CodeValidation) }
func IsNotFound(err error) bool    { return hasCode(err, CodeNotFound) }
func IsConsistency(err error) bool { return hasCode(err, CodeConsistency) }
func IsConflict(err error) bool    { return hasCode(err, CodeConflict) }

func hasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
