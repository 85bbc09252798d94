package http

import (
	"fmt"
	"net/http"
)

// AppError is an error the handler reports to the client. Status becomes the HTTP status;
// Err stays server-side.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithError keeps the cause for logs and errors.Is.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithField names the request field the error is about.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", message, http.StatusBadRequest)
}

// UnprocessableError is for a well-formed request the upstream refused to carry out.
func UnprocessableError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMITED", message, http.StatusTooManyRequests)
}

// BadGatewayError reports a failed upstream call.
func BadGatewayError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM", message, http.StatusBadGateway)
}

func GatewayTimeoutError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM_TIMEOUT", message, http.StatusGatewayTimeout)
}

func ServiceUnavailableError(message string) *AppError {
	return NewAppError("ERR_UNAVAILABLE", message, http.StatusServiceUnavailable)
}
