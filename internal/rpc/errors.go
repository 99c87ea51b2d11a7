// Package rpc holds the pieces shared by every procedure: error kinds,
// input validation and offset pagination.
package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a procedure failure.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus maps a code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a procedure failure that is safe to show to the caller.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent record, or one the caller does not own.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Unauthorized reports a missing or expired session.
func Unauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "Unauthorized"}
}

// Internal hides cause from the caller behind a generic message.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "Something went wrong", Cause: cause}
}

// From converts any error into an *Error. Errors that are not already
// procedure errors become INTERNAL_SERVER_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return Internal(err)
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	return From(err).Code
}

// IsNotFound reports whether err is a NOT_FOUND procedure error.
func IsNotFound(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeNotFound
}
