package client

import (
	"errors"
	"fmt"
)

// ErrInvalidPage is returned when a page number below 1 is requested.
var ErrInvalidPage = errors.New("page number must be >= 1")

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures (DNS, refused, timeout, cancel).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassDecode represents a response body that is not a valid page.
	ErrorClassDecode ErrorClass = "decode"
)

// NetworkError is the single error kind of a page fetch. Class tells which
// stage failed; every class is handled the same way by callers: the operation
// aborts and nothing is retried.
type NetworkError struct {
	Class      ErrorClass
	StatusCode int
	Page       int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("catalog %s error", e.Class)
	if e.Page > 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page)
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// classifyStatus maps an HTTP status code to an error class. Non-error codes
// return "".
func classifyStatus(code int) ErrorClass {
	switch {
	case code >= 500:
		return ErrorClassServer
	case code >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}
