package common

import "net/http"

// AppError pairs an API error code and HTTP status with the underlying cause.
// Handlers unwrap it to render the canonical error envelope.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the HTTP status, or fallback when none was set.
func (e *AppError) Status(fallback int) int {
	if e == nil || e.HTTPStatus == 0 {
		return fallback
	}
	return e.HTTPStatus
}

// Write renders the error through the canonical envelope.
func (e *AppError) Write(w http.ResponseWriter, fallback int) {
	JSONError(w, e.Status(fallback), e.Code, e.Message, e.Details)
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}
