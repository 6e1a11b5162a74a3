package apperr

import "net/http"

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type every service operation returns. It carries the
// HTTP status the boundary handler should respond with, plus optional field
// details and a retry hint for rate-limited requests.
type Error struct {
	Status     int
	Message    string
	Fields     []FieldError
	RetryAfter int // seconds, set for rate-limit errors only
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Fields: fields}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func Auth(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

func RateLimited(retryAfterSeconds int) *Error {
	return &Error{
		Status:     http.StatusTooManyRequests,
		Message:    "too many requests",
		RetryAfter: retryAfterSeconds,
	}
}

func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg}
}
