package proto

import (
	"errors"
	"fmt"
)

var (
	ErrRequestTimeout = errors.New("request: timeout")
	ErrClosed         = errors.New("connection closed")
)

// Code classifies a failed request. The values follow HTTP status codes.
type Code int

const (
	CodeBadRequest     Code = 400
	CodeNotFound       Code = 404
	CodeConflict       Code = 409
	CodeInternal       Code = 500
	CodeNotImplemented Code = 501
)

// ResponseError is the error carried by a failed response.
type ResponseError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func NewError(code Code, cause error) *ResponseError {
	return &ResponseError{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

func Errorf(code Code, format string, args ...any) *ResponseError {
	return NewError(code, fmt.Errorf(format, args...))
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.cause
}

// Is matches another ResponseError by code, so callers can test with
// errors.Is(err, &ResponseError{Code: CodeConflict}).
func (e *ResponseError) Is(target error) bool {
	t, ok := target.(*ResponseError)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first ResponseError in err's chain.
// Any other non nil error maps to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeInternal
}
