package customvision

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the service answered with a body that is not
// a valid classification result.
var ErrMalformedResponse = errors.New("malformed classifier response")

// ClassifierError is returned for any failed classification call.
type ClassifierError struct {
	statusCode int
	code       string
	message    string
	cause      error
}

// NewClassifierError creates a ClassifierError.
func NewClassifierError(statusCode int, code, message string, cause error) *ClassifierError {
	return &ClassifierError{
		statusCode: statusCode,
		code:       code,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ClassifierError) Error() string {
	msg := e.message
	if e.code != "" {
		msg = e.code + ": " + msg
	}
	if e.statusCode != 0 {
		msg = fmt.Sprintf("custom vision returned %d: %s", e.statusCode, msg)
	} else {
		msg = "custom vision: " + msg
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ClassifierError) Unwrap() error { return e.cause }

// StatusCode returns the HTTP status, or 0 when no response was received.
func (e *ClassifierError) StatusCode() int { return e.statusCode }

// Code returns the service error code, if any.
func (e *ClassifierError) Code() string { return e.code }

// Message returns the service error message.
func (e *ClassifierError) Message() string { return e.message }
