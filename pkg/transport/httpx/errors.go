package httpx

import (
	"errors"
	"net/http"
)

// StatusError carries the HTTP status a failed chain should answer with.
type StatusError struct {
	Err     error
	Message string
	Code    int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Error builds a StatusError with the given code and message.
func Error(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

// Wrap attaches a status to err.
func Wrap(code int, err error) *StatusError {
	if err == nil {
		return Error(code, "")
	}
	return &StatusError{Code: code, Message: err.Error(), Err: err}
}

// StatusOf returns the status carried by err, or 500.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) && se.Code > 0 {
		return se.Code
	}
	return http.StatusInternalServerError
}
