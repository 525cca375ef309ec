package catalog

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("CatalogError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf returns the return code of err.
// nil yields RetCSuccess, errors that are no *Error yield RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// IsNotFound reports whether err is a RetCNotFound error
func IsNotFound(err error) bool { return err != nil && CodeOf(err) == RetCNotFound }

// IsInvalidInput reports whether err is a RetCInvalidInput error
func IsInvalidInput(err error) bool { return err != nil && CodeOf(err) == RetCInvalidInput }

// IsInvalidOperation reports whether err is a RetCInvalidOperation error
func IsInvalidOperation(err error) bool { return err != nil && CodeOf(err) == RetCInvalidOperation }

// IsInternal reports whether err is a RetCInternalError error
func IsInternal(err error) bool { return err != nil && CodeOf(err) == RetCInternalError }

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCNotFound                        // 2: The referenced record does not exist.
	RetCInvalidInput                    // 3: The payload failed validation.
	RetCInvalidOperation                // 4: The state transition is not allowed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidInput:
		return "InvalidInput"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}
