package errs

import (
	"errors"
	"fmt"
)

// Application error codes. They express the category of an error so the
// http layer can pick the right response (404 page, login redirect,
// form re-render, 500 page) without inspecting error strings.
const (
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
)

// Error represents an application error. The Message is safe to show to
// the user; internal details belong in the log, not in Message.
type Error struct {
	// Machine-readable error code.
	Code string
	// Human-readable message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("microblog error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode returns the code of any error. Plain errors that don't carry
// a code count as internal faults.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the user-facing message of any error. Plain errors
// get a generic message so internals never leak into a rendered page.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper for constructing an *Error with a formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
