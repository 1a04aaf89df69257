package contacts

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode is the code a provider attaches to a failed operation
type ErrorCode int

// Provider error codes, numbered like the device contacts API.
const (
	UnknownError            ErrorCode = 0
	InvalidArgumentError    ErrorCode = 1
	TimeoutError            ErrorCode = 2
	PendingOperationError   ErrorCode = 3
	IOError                 ErrorCode = 4
	NotSupportedError       ErrorCode = 5
	OperationCancelledError ErrorCode = 6
	PermissionDeniedError   ErrorCode = 20
)

var codeNames = map[ErrorCode]string{
	UnknownError:            "UNKNOWN_ERROR",
	InvalidArgumentError:    "INVALID_ARGUMENT_ERROR",
	TimeoutError:            "TIMEOUT_ERROR",
	PendingOperationError:   "PENDING_OPERATION_ERROR",
	IOError:                 "IO_ERROR",
	NotSupportedError:       "NOT_SUPPORTED_ERROR",
	OperationCancelledError: "OPERATION_CANCELLED_ERROR",
	PermissionDeniedError:   "PERMISSION_DENIED_ERROR",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ErrNotFound is wrapped when an operation targets a contact the provider
// does not have.
var ErrNotFound = errors.New("contact not found")

// Error is the failure outcome of a provider operation.
type Error struct {
	Code ErrorCode
	Op   string // "save", "remove", "find"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with an operation and code. Context errors override the
// given code with TIMEOUT_ERROR or OPERATION_CANCELLED_ERROR.
func NewError(op string, code ErrorCode, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = TimeoutError
	case errors.Is(err, context.Canceled):
		code = OperationCancelledError
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf extracts the provider code from err. Errors that did not come from
// a provider are classified by their context cause, else UNKNOWN_ERROR.
func CodeOf(err error) ErrorCode {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutError
	case errors.Is(err, context.Canceled):
		return OperationCancelledError
	}
	return UnknownError
}
